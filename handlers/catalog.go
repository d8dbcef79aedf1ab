// handlers/catalog.go
package handlers

import (
	"log"

	"activity-hub/models"
	"activity-hub/services"
	"activity-hub/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func SetupCatalogRoutes(app *fiber.App, admin fiber.Router, deps Dependencies) {
	catalog := deps.Catalog

	// 🔓 Public catalog
	app.Get("/activities", func(c *fiber.Ctx) error {
		filter := services.ActivityFilter{FeaturedOnly: c.QueryBool("featured", false)}
		if raw := c.Query("category"); raw != "" {
			filter.Category = models.ParseCategory(raw)
		}
		limit := clampQueryInt(c.QueryInt("limit", defaultListLimit), defaultListLimit, maxListLimit)

		now := deps.Clock.Now()
		items := make([]models.Activity, 0, limit)
		for a, err := range catalog.ListActive(c.UserContext(), filter) {
			if err != nil {
				return respondError(c, err)
			}
			a.Status = services.DeriveStatus(a.Schedule, deps.AssumedDuration, now)
			items = append(items, a)
			if len(items) == limit {
				break
			}
		}
		return ok(c, fiber.Map{"activities": items})
	})

	app.Get("/activities/:variant/:id", func(c *fiber.Ctx) error {
		v, found := models.ParseVariant(c.Params("variant"))
		if !found {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}
		a, err := catalog.GetByRef(c.UserContext(), v, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		// unpublished activities stay invisible to the public surface
		if !a.IsActive {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}
		a.Status = services.DeriveStatus(a.Schedule, deps.AssumedDuration, deps.Clock.Now())
		return ok(c, fiber.Map{"activity": a})
	})

	app.Get("/activities/:variant/:id/counts", func(c *fiber.Ctx) error {
		v, found := models.ParseVariant(c.Params("variant"))
		if !found {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}
		counts, err := deps.Ledger.Counts(c.UserContext(), v, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, counts)
	})

	// 🔐 Admin media
	admin.Post("/activities/:variant/:id/cover", func(c *fiber.Ctx) error {
		if deps.Uploader == nil {
			return fail(c, fiber.StatusServiceUnavailable, "media storage is not configured")
		}
		v, found := models.ParseVariant(c.Params("variant"))
		if !found {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}
		id := c.Params("id")
		if _, err := catalog.GetByRef(c.UserContext(), v, id); err != nil {
			return respondError(c, err)
		}

		fileHeader, err := c.FormFile("cover")
		if err != nil {
			return validationFailed(c, map[string][]string{"cover": {"cover is a required file"}})
		}

		url, err := deps.Uploader.UploadFile(c.UserContext(), fileHeader, utils.CoverKey(string(v), id, fileHeader.Filename))
		if err != nil {
			log.Printf("❌ [COVER] upload for %s:%s failed: %v", v, id, err)
			return fail(c, fiber.StatusBadGateway, "failed to upload cover image")
		}
		if err := catalog.SetCoverImage(c.UserContext(), v, id, url); err != nil {
			return respondError(c, err)
		}
		return okWithMessage(c, "cover updated", fiber.Map{"cover_image_url": url})
	})
}

func clampQueryInt(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
