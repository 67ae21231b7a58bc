package handlers

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "cardshare/internal/log"
	"cardshare/internal/media"
)

type MediaHandler struct {
	Assets *media.Store
}

// GET /<upload prefix>/*
// Only flat names inside the managed directory are served.
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	name := c.Params("*")
	lower := strings.ToLower(name)
	if strings.Contains(lower, "..") || strings.Contains(lower, "%2e") || strings.Contains(lower, "\x00") {
		applog.Security(c, "media.traversal.block", map[string]any{"path": name})
		return c.SendStatus(fiber.StatusNotFound)
	}
	full, ok := h.Assets.Path(h.Assets.URLPrefix() + "/" + name)
	if !ok {
		applog.Security(c, "media.traversal.block", map[string]any{"path": name})
		return c.SendStatus(fiber.StatusNotFound)
	}
	if fi, err := os.Stat(full); err != nil || fi.IsDir() {
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendFile(full)
}
