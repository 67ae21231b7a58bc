package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
	"cardshare/internal/services"
	"cardshare/internal/validate"
)

type ShareHandler struct {
	Shares  *services.ShareService
	BaseURL string
}

// baseURL is the configured public base, or the scheme and host the request
// came in on.
func (h *ShareHandler) baseURL(c *fiber.Ctx) string {
	if h.BaseURL != "" {
		return strings.TrimRight(h.BaseURL, "/")
	}
	return c.BaseURL()
}

// GET /share?id=... (JSON) and GET /share?view=... (HTML page)
func (h *ShareHandler) Share(c *fiber.Ctx) error {
	if view := c.Query("view"); view != "" {
		return h.page(c, view)
	}
	raw := c.Query("id")
	if strings.TrimSpace(raw) == "" {
		return fail(c, "share", domain.Validation("id", "No card ID provided"))
	}
	id, ok := validate.ID(raw)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return fail(c, "share", domain.NotFound(raw))
	}
	v, err := h.Shares.Resolve(id, h.baseURL(c))
	if err != nil {
		return fail(c, "share", err)
	}
	applog.Info(c, "share.link", map[string]any{"id": id, "link": v.ShareLink})
	return c.JSON(fiber.Map{
		"success":   true,
		"shareLink": v.ShareLink,
		"card": fiber.Map{
			"id":          v.ID,
			"name":        v.Name,
			"description": v.Description,
			"backDetails": v.BackDetails,
			"price":       v.Price,
			"images":      v.Images,
			"firstImage":  v.FirstImage,
		},
	})
}

func (h *ShareHandler) page(c *fiber.Ctx, raw string) error {
	id, ok := validate.ID(raw)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "view"})
		return notFound(c, "Card not found.")
	}
	v, err := h.Shares.Resolve(id, h.baseURL(c))
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(c, "Card not found.")
	}
	if err != nil {
		applog.Error(c, "share.page.fail", err, map[string]any{"id": id})
		return c.Status(statusFor(domain.KindOf(err), "")).Render("notfound", fiber.Map{
			"Message": "Something went wrong. Please try again.",
		})
	}
	return render(c, "share", fiber.Map{"Card": v})
}

// GET /api/v1/cards
func (h *ShareHandler) List(c *fiber.Ctx) error {
	views, err := h.Shares.List(h.baseURL(c))
	if err != nil {
		return fail(c, "cards.list", err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(views), "cards": views})
}
