// handlers/routes.go
package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"activity-hub/middleware"
	"activity-hub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CoverUploader stores an uploaded cover image and returns its public URL.
type CoverUploader interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

// Dependencies is everything the HTTP surface calls into. Uploader may be nil.
type Dependencies struct {
	Catalog     *services.CatalogService
	Ledger      *services.RegistrationService
	Feed        *services.FeedService
	Leaderboard *services.LeaderboardService
	Members     *services.MemberService
	Badges      *services.BadgeService
	CheckIn     *services.CheckInService
	Uploader    CoverUploader
	Clock       clockwork.Clock

	AssumedDuration time.Duration
}

// SetupRoutes registers every Gateway-facing route. The Gateway auth middleware must already be installed.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.AssumedDuration <= 0 {
		deps.AssumedDuration = services.DefaultAssumedDuration
	}

	app.Use(middleware.UserContextMiddleware())

	me := app.Group("/me", middleware.RequireUser())
	admin := app.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))

	SetupHomeRoutes(app, deps.Feed, deps.Clock)
	SetupCatalogRoutes(app, admin, deps)
	SetupRegistrationRoutes(app, me, admin, deps)
	SetupLeaderboardRoutes(app, me, admin, deps)
}

// HealthCheck reports a dependency as unhealthy by returning an error.
type HealthCheck func(ctx context.Context) error

// SetupOpsRoutes registers /healthz and /metrics. Call it before the Gateway auth middleware
// so probes and scrapers reach them directly.
func SetupOpsRoutes(app *fiber.App, gatherer prometheus.Gatherer, checks map[string]HealthCheck) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		code := fiber.StatusOK
		if !healthy {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(Envelope{Success: healthy, Data: status})
	})
}
