package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
	"cardshare/internal/media"
	"cardshare/internal/services"
)

type CardHandler struct {
	Ingest *services.IngestService
}

// POST /upload
// action=add|edit|delete, multipart or urlencoded.
func (h *CardHandler) Upload(c *fiber.Ctx) error {
	action := strings.TrimSpace(c.FormValue("action"))
	applog.Debug(c, "card.upload", map[string]any{"action": action})
	ctx := applog.WithRequest(c.UserContext(), c)

	switch action {
	case "add":
		id, err := h.Ingest.Add(ctx, cardInput(c))
		if err != nil {
			return fail(c, "card.add", err)
		}
		return c.JSON(fiber.Map{"success": true, "id": id})
	case "edit":
		id := c.FormValue("card_id")
		if err := h.Ingest.Edit(ctx, id, cardInput(c)); err != nil {
			return fail(c, "card.edit", err)
		}
		return c.JSON(fiber.Map{"success": true, "id": strings.TrimSpace(id)})
	case "delete":
		id := c.FormValue("card_id")
		if err := h.Ingest.Delete(ctx, id); err != nil {
			return fail(c, "card.delete", err)
		}
		return c.JSON(fiber.Map{"success": true})
	default:
		return fail(c, "card.upload", domain.Validation("action", "Invalid action"))
	}
}

func cardInput(c *fiber.Ctx) services.CardInput {
	return services.CardInput{
		Name:        c.FormValue("card_name"),
		Description: c.FormValue("description"),
		BackDetails: c.FormValue("back_details"),
		Price:       c.FormValue("price"),
		Front:       imageSource(c, "image_file", "image_url"),
		Back:        imageSource(c, "back_image_file", "back_image_url"),
	}
}

// imageSource prefers an uploaded file over the URL field, like the form
// always has. A file part that cannot be read becomes an Upload carrying the
// transport failure so the store reports it as such.
func imageSource(c *fiber.Ctx, fileField, urlField string) media.Source {
	src := media.Source{URL: strings.TrimSpace(c.FormValue(urlField))}
	fh, err := c.FormFile(fileField)
	switch {
	case err == nil && fh.Filename != "":
		src.Upload = media.FromFileHeader(fh)
	case err == nil, errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
	default:
		src.Upload = &media.Upload{
			Filename: fileField,
			Failure:  domain.AssetFailure(domain.ReasonTransport, "upload could not be read", err),
		}
	}
	return src
}
