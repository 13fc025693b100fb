package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/config"
	"github.com/nasmini/backend/internal/netutil"
)

type SystemHandler struct {
	cfg *config.Config
}

func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

// Lan reports the LAN address and base URL, for showing a shareable link.
func (h *SystemHandler) Lan(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"host": netutil.LanIP(),
		"url":  netutil.BaseURL(h.cfg) + "/",
	})
}
