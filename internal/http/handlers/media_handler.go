package handlers

import (
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "rentspace/internal/log"
	"rentspace/internal/services"
)

type MediaHandler struct {
	Media *services.MediaService
}

func mediaKind(raw string) services.MediaKind {
	if raw == "" {
		return services.MediaPhoto
	}
	return services.MediaKind(raw)
}

// POST /api/v1/media/photos (multipart: file, kind)
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, "media.upload.fail", &services.ValidationError{Field: "file", Message: "Please choose a file to upload"})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "media.upload.fail", err)
	}
	defer f.Close()

	up, err := h.Media.Upload(c.UserContext(), identity(c), mediaKind(c.FormValue("kind")), fh.Filename, f)
	if err != nil {
		return fail(c, "media.upload.fail", err)
	}
	applog.Audit(c, "media.upload", map[string]any{"bucket": up.Bucket, "key": up.Key, "bytes": fh.Size})
	return c.Status(fiber.StatusCreated).JSON(up)
}

// DELETE /api/v1/media/photos?key=&kind=
func (h *MediaHandler) Remove(c *fiber.Ctx) error {
	key := c.Query("key")
	if err := h.Media.Remove(c.UserContext(), identity(c), mediaKind(c.Query("kind")), key); err != nil {
		return fail(c, "media.remove.fail", err)
	}
	applog.Audit(c, "media.remove", map[string]any{"key": key})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /media/*
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	p := c.Params("*")
	rawLower := strings.ToLower(p)
	// Block encoded traversal attempts as well as raw .. or null bytes
	if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": p})
		return c.SendStatus(fiber.StatusNotFound)
	}
	rc, err := h.Media.Open(c.UserContext(), p)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		applog.Error(c, "media.serve.fail", err, map[string]any{"path": p})
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if ext := path.Ext(p); ext != "" {
		c.Type(strings.TrimPrefix(ext, "."))
	}
	return c.SendStream(rc)
}
