package handlers

import (
	"io"
	"mime"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/nasmini/backend/internal/hub"
	"github.com/nasmini/backend/internal/middleware"
	"github.com/nasmini/backend/internal/storage"
	"github.com/nasmini/backend/internal/transfer"
)

type FileHandler struct {
	store     *storage.Store
	transfers *transfer.Coordinator
	hub       *hub.Hub
}

func NewFileHandler(store *storage.Store, transfers *transfer.Coordinator, h *hub.Hub) *FileHandler {
	return &FileHandler{store: store, transfers: transfers, hub: h}
}

// List returns the caller's files sorted by name.
func (h *FileHandler) List(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)

	files, err := h.store.List(username)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "files": files})
}

// Upload streams a single-file multipart body to the caller's directory.
// The body is consumed incrementally (StreamRequestBody is on), so progress
// events track bytes actually on disk.
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)

	boundary := string(c.Context().Request.Header.MultipartFormBoundary())
	if boundary == "" {
		return badRequest(c, "expected multipart body")
	}

	mr := multipart.NewReader(c.Context().RequestBodyStream(), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return badRequest(c, "bad multipart body")
		}
		// the raw Content-Disposition filename, not part.FileName(): the
		// accessor strips directory components, and a name carrying any must
		// be rejected rather than silently renamed
		name := rawFileName(part)
		if name == "" {
			continue
		}

		if _, err := h.transfers.Upload(c.Context(), username, name, part); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "message": "uploaded " + name})
	}

	return badRequest(c, "missing file")
}

func rawFileName(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Download streams a stored file as an attachment.
func (h *FileHandler) Download(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)
	name := c.Query("name")

	f, _, err := h.store.Open(username, name)
	if err != nil {
		return fail(c, err)
	}
	f.Close()

	path, err := h.store.FilePath(username, name)
	if err != nil {
		return fail(c, err)
	}
	return c.Download(path, name)
}

// Delete removes a stored file. Deleting a missing file still succeeds.
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)
	name := c.Query("name")

	if err := h.store.Delete(username, name); err != nil {
		return fail(c, err)
	}
	h.hub.Broadcast(username, transfer.RefreshEvent{Type: "refresh"})
	return c.JSON(fiber.Map{"ok": true})
}
