package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/database"
	"github.com/nasmini/backend/internal/handlers"
	"github.com/nasmini/backend/internal/hub"
	"github.com/nasmini/backend/internal/models"
	"github.com/nasmini/backend/internal/qrlogin"
	"github.com/nasmini/backend/internal/services"
	"github.com/nasmini/backend/internal/storage"
	"github.com/nasmini/backend/internal/transfer"
	"github.com/nasmini/backend/internal/users"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// File store
	store, err := storage.NewStore(cfg.DataRoot, cfg.AllowedExts)
	if err != nil {
		log.Fatalf("Failed to prepare data root: %v", err)
	}

	// Services
	userSvc := users.NewService(database.DB, cfg.RegistrationCap, store.EnsureUserDir)
	qrStore := qrlogin.NewStore(database.DB, time.Duration(cfg.QRExpireSeconds)*time.Second)
	notifications := hub.New()

	var mirror transfer.Mirror
	if m := services.NewFTPMirror(cfg, store); m != nil {
		mirror = m
		log.Printf("FTP mirror enabled (%s)", cfg.FTPAddr)
	}
	transfers := transfer.NewCoordinator(store, notifications, mirror)

	app := handlers.NewApp(handlers.Deps{
		Cfg:       cfg,
		Users:     userSvc,
		QR:        qrStore,
		Store:     store,
		Transfers: transfers,
		Hub:       notifications,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting NAS Mini API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
