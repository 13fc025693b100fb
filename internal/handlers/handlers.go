// Package handlers contains the Fiber HTTP handlers. Every JSON response
// follows the {ok, ...} shape; service errors are mapped to status codes
// here and internal detail stays in the server log.
package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/common"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, common.ErrDuplicateUsername):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrQuotaExceeded):
		return fiber.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrInvalidOrExpiredToken),
		errors.Is(err, common.ErrUnsupportedType),
		errors.Is(err, common.ErrInvalidName):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": msg})
}
