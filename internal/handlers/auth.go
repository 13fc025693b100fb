package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/database"
	"github.com/nasmini/backend/internal/middleware"
	"github.com/nasmini/backend/internal/users"
)

type AuthHandler struct {
	cfg   *config.Config
	users *users.Service
}

func NewAuthHandler(cfg *config.Config, svc *users.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: svc}
}

// CredentialsRequest represents a register/login request body
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and logs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	user, err := h.users.Register(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		return fail(c, err)
	}

	return h.startSession(c, user.Username)
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)

	user, err := h.users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return h.startSession(c, user.Username)
}

// Logout clears the session cookie. When Redis is configured the token is
// also deny-listed for its remaining lifetime; otherwise a copy of the
// token held elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookie); token != "" {
		if claims, ok := middleware.ParseClaims(token, h.cfg); ok {
			ttl := time.Until(claims.ExpiresAt.Time)
			if err := database.BlacklistToken(token, ttl); err != nil {
				return fail(c, err)
			}
		}
	}
	middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

// Me reports the authenticated username.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)
	if username == "" {
		return c.JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true, "username": username})
}

func (h *AuthHandler) startSession(c *fiber.Ctx, username string) error {
	token, err := middleware.GenerateToken(username, h.cfg)
	if err != nil {
		return fail(c, err)
	}
	middleware.SetSessionCookie(c, token, h.cfg)
	return c.JSON(fiber.Map{"ok": true})
}
