package handlers

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/middleware"
	"github.com/nasmini/backend/internal/netutil"
	"github.com/nasmini/backend/internal/qrlogin"
)

type QRHandler struct {
	cfg   *config.Config
	store *qrlogin.Store
}

func NewQRHandler(cfg *config.Config, store *qrlogin.Store) *QRHandler {
	return &QRHandler{cfg: cfg, store: store}
}

// Create issues a claim token for the logged-in account and returns it with
// a scannable PNG of the claim URL.
func (h *QRHandler) Create(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)

	token, expiresAt, err := h.store.Create(c.UserContext(), username)
	if err != nil {
		return fail(c, err)
	}

	url := netutil.BaseURL(h.cfg) + "/api/qr/claim?token=" + token
	pngBytes, err := qrlogin.RenderPNG(url)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"token":   token,
		"expire":  expiresAt,
		"png_b64": base64.StdEncoding.EncodeToString(pngBytes),
	})
}

// Claim exchanges a scanned token for a session. Public: this is itself a
// login mechanism, but it only ever grants the account the token was bound
// to at creation.
func (h *QRHandler) Claim(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing token")
	}

	username, err := h.store.Claim(c.UserContext(), token)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid or expired token")
	}

	session, err := middleware.GenerateToken(username, h.cfg)
	if err != nil {
		return fail(c, err)
	}
	middleware.SetSessionCookie(c, session, h.cfg)

	c.Type("html")
	return c.SendString("<script>location.href='/'</script>")
}
