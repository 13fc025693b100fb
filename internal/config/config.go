package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// API
	APIPort   int
	BaseURL   string // external base URL for QR claim links; derived from LAN IP when empty
	StaticDir string

	// Storage
	DataRoot    string
	AllowedExts []string

	// Database
	DBDriver   string // "sqlite" or "postgres"
	DBPath     string // sqlite file
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Redis (optional; enables the logout deny-list when set)
	RedisAddr     string
	RedisPassword string

	// Sessions
	JWTSecret      string
	JWTExpireHours int

	// QR login
	QRExpireSeconds int

	// Registration
	RegistrationCap int

	// FTP mirror (optional; mirrors completed uploads when set)
	FTPAddr     string
	FTPUser     string
	FTPPassword string
	FTPPath     string
}

// generateSecureSecret generates a cryptographically secure random secret
func generateSecureSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(os.Getenv("HOSTNAME") + string(rune(length))))
	}
	return hex.EncodeToString(bytes)
}

func Load() *Config {
	// JWT secret - generate random if not provided
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateSecureSecret(32) // 64 character hex string
		log.Println("WARNING: JWT_SECRET not set - generated random secret. Sessions will not persist across restarts.")
	}

	exts := strings.Split(getEnv("ALLOWED_EXTS", ".zip,.rar,.apk"), ",")
	for i := range exts {
		exts[i] = strings.ToLower(strings.TrimSpace(exts[i]))
	}

	return &Config{
		// API
		APIPort:   getEnvInt("API_PORT", 8000),
		BaseURL:   getEnv("BASE_URL", ""),
		StaticDir: getEnv("STATIC_DIR", "./static"),

		// Storage
		DataRoot:    getEnv("DATA_ROOT", "./data"),
		AllowedExts: exts,

		// Database
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "nasmini.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "nasmini"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "nasmini"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		// Sessions
		JWTSecret:      jwtSecret,
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		// QR login
		QRExpireSeconds: getEnvInt("QR_EXPIRE_SECONDS", 120),

		// Registration
		RegistrationCap: getEnvInt("REGISTRATION_CAP", 2),

		// FTP mirror
		FTPAddr:     getEnv("FTP_MIRROR_ADDR", ""),
		FTPUser:     getEnv("FTP_MIRROR_USER", ""),
		FTPPassword: getEnv("FTP_MIRROR_PASSWORD", ""),
		FTPPath:     getEnv("FTP_MIRROR_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
