package handlers

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/hub"
	"github.com/nasmini/backend/internal/middleware"
	"github.com/nasmini/backend/internal/qrlogin"
	"github.com/nasmini/backend/internal/storage"
	"github.com/nasmini/backend/internal/transfer"
	"github.com/nasmini/backend/internal/users"
)

// Deps are the wired services the HTTP surface is built on.
type Deps struct {
	Cfg       *config.Config
	Users     *users.Service
	QR        *qrlogin.Store
	Store     *storage.Store
	Transfers *transfer.Coordinator
	Hub       *hub.Hub
}

// NewApp assembles the Fiber application: global middleware, the session
// gate, and every route.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:           "NAS Mini API v1.0",
		ServerHeader:      "NASMini",
		BodyLimit:         10 * 1024 * 1024 * 1024, // 10GiB
		StreamRequestBody: true,
		// without this fasthttp pre-parses multipart bodies and leaves no
		// stream for the upload handler to read
		DisablePreParseMultipartForm: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"ok":    false,
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())
	app.Use(middleware.SessionGate(d.Cfg))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "nasmini-api",
		})
	})

	// Static assets and pages
	app.Static("/static", d.Cfg.StaticDir)
	app.Get("/", servePage(d.Cfg, "index.html"))
	app.Get("/auth", func(c *fiber.Ctx) error {
		if middleware.CurrentUsername(c) != "" {
			return c.Redirect("/", fiber.StatusTemporaryRedirect)
		}
		return servePage(d.Cfg, "auth.html")(c)
	})

	// Initialize handlers
	authHandler := NewAuthHandler(d.Cfg, d.Users)
	qrHandler := NewQRHandler(d.Cfg, d.QR)
	fileHandler := NewFileHandler(d.Store, d.Transfers, d.Hub)
	wsHandler := NewWSHandler(d.Hub)
	systemHandler := NewSystemHandler(d.Cfg)

	// API routes
	api := app.Group("/api")
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Public routes (also on the session gate allow-list)
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Get("/qr/claim", qrHandler.Claim)
	api.Get("/lan", systemHandler.Lan)

	// Protected routes
	api.Post("/logout", authHandler.Logout)
	api.Get("/me", authHandler.Me)
	api.Get("/qr/create", qrHandler.Create)
	api.Get("/files", fileHandler.List)
	api.Post("/upload", fileHandler.Upload)
	api.Get("/download", fileHandler.Download)
	api.Post("/delete", fileHandler.Delete)

	// Live channel
	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws", websocket.New(wsHandler.Live))

	return app
}

// servePage serves a page from the static dir; the UI is an external
// collaborator, so a missing file is reported plainly instead of erroring.
func servePage(cfg *config.Config, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := filepath.Join(cfg.StaticDir, name)
		if _, err := os.Stat(path); err != nil {
			c.Type("txt")
			return c.SendString("UI not installed; API is up\n")
		}
		return c.SendFile(path)
	}
}
