package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cardshare/internal/domain"
	applog "cardshare/internal/log"
)

func statusFor(k domain.Kind, reason domain.AssetReason) int {
	switch k {
	case domain.KindValidation, domain.KindMissingAsset:
		return fiber.StatusBadRequest
	case domain.KindAsset:
		if reason == domain.ReasonSizeLimit {
			return fiber.StatusRequestEntityTooLarge
		}
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindDuplicateID:
		return fiber.StatusConflict
	case domain.KindStorageUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the structured error body for err and logs it at a level
// matching its kind. Wrapped causes are logged, never sent to the client.
func fail(c *fiber.Ctx, action string, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		applog.Error(c, action+".fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false, "kind": "internal", "error": "Something went wrong. Please try again.",
		})
	}

	body := fiber.Map{"success": false, "kind": de.Kind, "error": de.Msg}
	fields := map[string]any{"kind": de.Kind}
	if de.Field != "" {
		body["field"] = de.Field
		fields["field"] = de.Field
	}
	if de.Reason != "" {
		body["reason"] = de.Reason
		fields["reason"] = de.Reason
	}
	if de.Limit > 0 {
		body["limit"] = de.Limit
	}

	c.Status(statusFor(de.Kind, de.Reason))
	switch de.Kind {
	case domain.KindStorageUnavailable, domain.KindCorruptStore:
		applog.Error(c, action+".fail", err, fields)
	case domain.KindNotFound:
		applog.Info(c, action+".notfound", fields)
	default:
		applog.Security(c, "validation.fail", fields)
	}
	return c.JSON(body)
}
