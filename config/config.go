// Package config centralises runtime configuration: defaults, an optional .env file, then the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures runtime configuration values for the service.
type Config struct {
	HTTPAddress    string
	AllowedOrigins string
	GatewayToken   string

	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string

	Location *time.Location

	// RequireApproval is the default moderation policy for new inscriptions; an activity can override it.
	RequireApproval bool

	FeedPerVariant    int
	FeedSectionSize   int
	AssumedDuration   time.Duration
	LeaderboardLimit  int
	CatalogCacheTTL   time.Duration
	ReconcileInterval time.Duration
	PublishInterval   time.Duration

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	CheckInSecret string
	CheckInTTL    time.Duration

	ProfileSyncURL      string
	ProfileSyncPath     string
	ProfileSyncInterval time.Duration
	ServiceToken        string

	R2 R2Config
}

// R2Config is the Cloudflare R2 bucket used for activity cover images. Empty AccountID disables uploads.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != ""
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("http_address", ":5200")
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("gateway_token", "")
	v.SetDefault("database_driver", "postgres")
	v.SetDefault("database_url", "")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("require_approval", false)
	v.SetDefault("feed_per_variant", 10)
	v.SetDefault("feed_section_size", 4)
	v.SetDefault("assumed_duration", 2*time.Hour)
	v.SetDefault("leaderboard_limit", 100)
	v.SetDefault("catalog_cache_ttl", 5*time.Second)
	v.SetDefault("reconcile_interval", 10*time.Minute)
	v.SetDefault("publish_interval", time.Minute)
	v.SetDefault("redis_url", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "activity-hub.inscriptions")
	v.SetDefault("checkin_secret", "")
	v.SetDefault("checkin_ttl", 72*time.Hour)
	v.SetDefault("profile_sync_url", "")
	v.SetDefault("profile_sync_path", "/api/v1/public/profiles")
	v.SetDefault("profile_sync_interval", time.Minute)
	v.SetDefault("service_token", "")
	v.SetDefault("cloudflare_account_id", "")
	v.SetDefault("r2_access_key_id", "")
	v.SetDefault("r2_access_key_secret", "")
	v.SetDefault("r2_bucket_name", "")
	v.SetDefault("cdn_base_url", "")

	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file then the environment. Missing .env is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Could not read .env file: %v", err)
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (Config, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", v.GetString("timezone"), err)
	}

	cfg := Config{
		HTTPAddress:         v.GetString("http_address"),
		AllowedOrigins:      strings.Join(splitAndTrim(v.GetString("allowed_origins")), ","),
		GatewayToken:        v.GetString("gateway_token"),
		DatabaseDriver:      strings.ToLower(v.GetString("database_driver")),
		DatabaseURL:         v.GetString("database_url"),
		Location:            loc,
		RequireApproval:     v.GetBool("require_approval"),
		FeedPerVariant:      v.GetInt("feed_per_variant"),
		FeedSectionSize:     v.GetInt("feed_section_size"),
		AssumedDuration:     v.GetDuration("assumed_duration"),
		LeaderboardLimit:    v.GetInt("leaderboard_limit"),
		CatalogCacheTTL:     v.GetDuration("catalog_cache_ttl"),
		ReconcileInterval:   v.GetDuration("reconcile_interval"),
		PublishInterval:     v.GetDuration("publish_interval"),
		RedisURL:            v.GetString("redis_url"),
		KafkaBrokers:        splitAndTrim(v.GetString("kafka_brokers")),
		KafkaTopic:          v.GetString("kafka_topic"),
		CheckInSecret:       v.GetString("checkin_secret"),
		CheckInTTL:          v.GetDuration("checkin_ttl"),
		ProfileSyncURL:      v.GetString("profile_sync_url"),
		ProfileSyncPath:     v.GetString("profile_sync_path"),
		ProfileSyncInterval: v.GetDuration("profile_sync_interval"),
		ServiceToken:        v.GetString("service_token"),
		R2: R2Config{
			AccountID:       v.GetString("cloudflare_account_id"),
			AccessKeyID:     v.GetString("r2_access_key_id"),
			AccessKeySecret: v.GetString("r2_access_key_secret"),
			Bucket:          v.GetString("r2_bucket_name"),
			CDNBaseURL:      v.GetString("cdn_base_url"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.GatewayToken == "" {
		return fmt.Errorf("GATEWAY_TOKEN is not set, service cannot authenticate Gateway")
	}
	if c.CheckInSecret == "" {
		return fmt.Errorf("CHECKIN_SECRET is not set")
	}
	if c.FeedPerVariant < 1 || c.FeedSectionSize < 1 {
		return fmt.Errorf("FEED_PER_VARIANT and FEED_SECTION_SIZE must be positive")
	}
	if c.AssumedDuration <= 0 {
		return fmt.Errorf("ASSUMED_DURATION must be positive")
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
