// handlers/home.go
package handlers

import (
	"activity-hub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
)

func SetupHomeRoutes(app *fiber.App, feed *services.FeedService, clock clockwork.Clock) {
	app.Get("/home", func(c *fiber.Ctx) error {
		home, err := feed.BuildHomeFeed(c.UserContext(), clock.Now())
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, home)
	})
}
