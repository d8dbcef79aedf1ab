package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activity-hub/cache"
	"activity-hub/config"
	"activity-hub/database"
	"activity-hub/events"
	"activity-hub/handlers"
	"activity-hub/metrics"
	"activity-hub/middleware"
	"activity-hub/services"
	"activity-hub/utils"
	"activity-hub/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	if err := database.Setup(db); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	clock := clockwork.NewRealClock()

	// --- Catalog + optional Redis cache ---
	catalog := services.NewCatalogService(db, cfg.Location, logger)
	catalog.Metrics = appMetrics
	healthChecks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to redis: ", err)
	}
	if redisCache != nil {
		defer redisCache.Close()
		catalog.WithCache(redisCache, cfg.CatalogCacheTTL)
		healthChecks["redis"] = redisCache.Health
		log.Println("✅ Catalog cache backed by Redis")
	}

	// --- Inscription events ---
	var publisher events.Publisher = events.Logger{Log: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("✅ Publishing inscription events to Kafka topic %s", cfg.KafkaTopic)
	}

	// --- Ledger, scoring, read models ---
	badges := services.NewBadgeService(db)
	scoring := services.NewScoringService(db, badges)
	ledger := services.NewRegistrationService(db, catalog, scoring)
	ledger.Events = publisher
	ledger.Metrics = appMetrics
	ledger.RequireApproval = cfg.RequireApproval

	feed := services.NewFeedService(catalog, cfg.FeedPerVariant, cfg.FeedSectionSize, cfg.AssumedDuration)
	feed.Metrics = appMetrics

	members := services.NewMemberService(db)
	checkIn := services.NewCheckInService(ledger, cfg.CheckInSecret, cfg.CheckInTTL)

	var uploader handlers.CoverUploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		uploader = r2
	} else {
		log.Println("⚠️  R2 is not configured, cover uploads are disabled")
	}

	// --- Background jobs ---
	scheduler, err := services.NewScheduler(clock, catalog, ledger, cfg.PublishInterval, cfg.ReconcileInterval)
	if err != nil {
		log.Fatal("failed to create scheduler: ", err)
	}
	scheduler.Start()

	if cfg.ProfileSyncURL != "" {
		syncWorker := workers.NewMemberSyncWorker(members, cfg.ProfileSyncURL, cfg.ProfileSyncPath, cfg.ServiceToken, cfg.ProfileSyncInterval)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  PROFILE_SYNC_URL not set, member profiles will not be mirrored")
	}

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // cover images
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID, X-Check-In-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupOpsRoutes(app, prometheus.DefaultGatherer, healthChecks)

	// 🔐❗ Everything past this point must come through the Gateway
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	handlers.SetupRoutes(app, handlers.Dependencies{
		Catalog:         catalog,
		Ledger:          ledger,
		Feed:            feed,
		Leaderboard:     services.NewLeaderboardService(db, cfg.LeaderboardLimit),
		Members:         members,
		Badges:          badges,
		CheckIn:         checkIn,
		Uploader:        uploader,
		Clock:           clock,
		AssumedDuration: cfg.AssumedDuration,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.HTTPAddress)
	log.Printf("✅ Scheduler running jobs: %v", scheduler.Jobs())
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ Scheduler shutdown: %v", err)
	}
}
