package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nasmini/backend/internal/common"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/database"
)

// SessionCookie is the HTTP-only cookie carrying the signed session token.
const SessionCookie = "session"

// GenerateToken issues a signed session token for a username. Tokens are
// stateless: validity is signature + expiry only, so logout cannot reach a
// token still held by another client unless the Redis deny-list is enabled.
func GenerateToken(username string, cfg *config.Config) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWTExpireHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "nasmini",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseClaims validates signature and expiry and returns the claims.
func ParseClaims(tokenString string, cfg *config.Config) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}

// VerifyToken returns the subject username for a valid, unexpired token.
// A failed verification is a normal condition, not an error.
func VerifyToken(tokenString string, cfg *config.Config) (string, bool) {
	claims, ok := ParseClaims(tokenString, cfg)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// SessionUser resolves the session cookie on a request to a username.
// Returns "" for absent, invalid, expired, or revoked tokens.
func SessionUser(c *fiber.Ctx, cfg *config.Config) string {
	tokenString := c.Cookies(SessionCookie)
	if tokenString == "" {
		return ""
	}
	if database.IsTokenBlacklisted(tokenString) {
		return ""
	}
	username, ok := VerifyToken(tokenString, cfg)
	if !ok {
		return ""
	}
	return username
}

// SetSessionCookie attaches the session token as an HTTP-only cookie.
func SetSessionCookie(c *fiber.Ctx, token string, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(time.Duration(cfg.JWTExpireHours) * time.Hour),
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(-time.Hour),
	})
}

// publicPaths bypass the session gate. The QR claim endpoint is public
// because it is itself a login mechanism.
var publicPaths = []string{
	"/auth",
	"/api/login",
	"/api/register",
	"/api/qr/claim",
	"/api/lan",
	"/static",
	"/health",
}

// SessionGate protects every route not on the allow-list. Unauthenticated
// page loads are redirected to /auth; API calls and everything else get a
// 401 JSON body. The websocket endpoint passes through so the handler can
// reject the handshake with its own close code.
func SessionGate(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		username := SessionUser(c, cfg)
		if username != "" {
			c.Locals("username", username)
		}

		for _, p := range publicPaths {
			if path == p || strings.HasPrefix(path, p+"/") {
				return c.Next()
			}
		}
		if path == "/ws" {
			return c.Next()
		}

		if username == "" {
			if c.Method() == fiber.MethodGet && !strings.HasPrefix(path, "/api") {
				return c.Redirect("/auth", fiber.StatusTemporaryRedirect)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": common.ErrUnauthenticated.Error(),
			})
		}
		return c.Next()
	}
}

// CurrentUsername returns the authenticated username for the request, or "".
func CurrentUsername(c *fiber.Ctx) string {
	username, ok := c.Locals("username").(string)
	if !ok {
		return ""
	}
	return username
}
