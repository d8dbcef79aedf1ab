// handlers/registration_routes.go
package handlers

import (
	"log"

	"activity-hub/middleware"
	"activity-hub/models"
	"activity-hub/services"

	"github.com/gofiber/fiber/v2"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type checkInRequest struct {
	Token string `json:"token" validate:"required"`
}

func SetupRegistrationRoutes(app *fiber.App, me, admin fiber.Router, deps Dependencies) {
	ledger := deps.Ledger

	app.Post("/activities/:variant/:id/join", middleware.RequireUser(), func(c *fiber.Ctx) error {
		v, found := models.ParseVariant(c.Params("variant"))
		if !found {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}

		res, err := ledger.Join(c.UserContext(), middleware.UserID(c), v, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		data := fiber.Map{
			"participants":   res.Participants,
			"capacity":       res.Capacity,
			"status":         res.Inscription.Status,
			"inscription_id": res.Inscription.ID,
		}
		switch {
		case res.AlreadyRegistered:
			return okWithMessage(c, "already registered", data)
		case res.Inscription.Status == models.InscriptionPending:
			return okWithMessage(c, "registration pending approval", data)
		}
		return okWithMessage(c, "registered", data)
	})

	// 🔐 The caller's own inscriptions
	me.Get("/inscriptions", func(c *fiber.Ctx) error {
		list, err := ledger.ListForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, fiber.Map{"inscriptions": list})
	})

	me.Get("/inscriptions/:id/qr", func(c *fiber.Ctx) error {
		ins, err := ledger.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		// someone else's inscription is reported as missing
		if ins.UserID != middleware.UserID(c) {
			return fail(c, fiber.StatusNotFound, services.ErrInscriptionNotFound.Error())
		}

		token, err := deps.CheckIn.IssueToken(ins)
		if err != nil {
			return respondError(c, err)
		}
		png, err := deps.CheckIn.QRCode(token, clampQueryInt(c.QueryInt("size", 256), 256, 1024))
		if err != nil {
			return respondError(c, err)
		}

		c.Set("X-Check-In-Token", token)
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Type("png")
		return c.Send(png)
	})

	// 🔐 Admin moderation
	admin.Patch("/inscriptions/:id/status", func(c *fiber.Ctx) error {
		var req statusRequest
		if valid, err := bindBody(c, &req); !valid {
			return err
		}

		res, err := ledger.SetStatus(c.UserContext(), c.Params("id"), models.InscriptionStatus(req.Status))
		if err != nil {
			return respondError(c, err)
		}
		log.Printf("✅ [MODERATION] %s set inscription %s %s -> %s", middleware.UserID(c), res.Inscription.ID, res.From, res.Inscription.Status)
		return ok(c, fiber.Map{"inscription": res.Inscription})
	})

	admin.Post("/check-in", func(c *fiber.Ctx) error {
		var req checkInRequest
		if valid, err := bindBody(c, &req); !valid {
			return err
		}

		res, err := deps.CheckIn.Redeem(c.UserContext(), req.Token)
		if err != nil {
			return respondError(c, err)
		}
		message := "checked in"
		if res.ScoringErr != nil {
			message = "checked in, points will be credited later"
		}
		return okWithMessage(c, message, fiber.Map{"inscription": res.Inscription})
	})

	admin.Get("/activities/:variant/:id/inscriptions", func(c *fiber.Ctx) error {
		v, found := models.ParseVariant(c.Params("variant"))
		if !found {
			return fail(c, fiber.StatusNotFound, services.ErrActivityNotFound.Error())
		}
		var status models.InscriptionStatus
		if raw := c.Query("status"); raw != "" {
			st, valid := models.ParseInscriptionStatus(raw)
			if !valid {
				return validationFailed(c, map[string][]string{
					"status": {"status must be one of [pending approved rejected attended]"},
				})
			}
			status = st
		}

		list, err := ledger.ListForActivity(c.UserContext(), v, c.Params("id"), status)
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, fiber.Map{"inscriptions": list})
	})
}
