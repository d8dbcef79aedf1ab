// handlers/leaderboard.go
package handlers

import (
	"activity-hub/middleware"
	"activity-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, me, admin fiber.Router, deps Dependencies) {
	board := deps.Leaderboard

	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		scope, err := services.ParseScope(c.Query("scope"), c.Query("country"), c.Query("region"), c.Query("locality"))
		if err != nil {
			return respondError(c, err)
		}

		entries, err := board.Rank(c.UserContext(), scope, c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err)
		}

		data := fiber.Map{"scope": scope, "leaderboard": entries}
		if userID := middleware.UserID(c); userID != "" {
			pos, err := board.PositionOf(c.UserContext(), scope, userID)
			if err != nil {
				return respondError(c, err)
			}
			if pos > 0 {
				data["my_rank"] = pos
			}
		}
		return ok(c, data)
	})

	me.Get("/progress", func(c *fiber.Ctx) error {
		member, err := deps.Members.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		badges, err := deps.Badges.ListForMember(c.UserContext(), member.ExternalUserID)
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, fiber.Map{
			"member":   member,
			"progress": services.ProgressFor(member.Score),
			"badges":   badges,
		})
	})

	admin.Get("/members", func(c *fiber.Ctx) error {
		members, err := deps.Members.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, fiber.Map{"members": members})
	})
}
