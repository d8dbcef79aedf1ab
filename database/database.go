// Package database opens the gorm connection and owns the schema.
package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"activity-hub/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open connects with the named driver. Unique violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// one writer; sqlite serialises anyway and shared-cache memory DBs deadlock otherwise
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Education{},
		&models.Club{},
		&models.DirectActivity{},
		&models.Inscription{},
		&models.Member{},
		&models.ScoreEvent{},
		&models.BadgeType{},
		&models.MemberBadge{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedBadges inserts the milestone badge catalog; existing codes are left alone.
func SeedBadges(db *gorm.DB) error {
	for _, trigger := range models.BadgeTriggers {
		badge := trigger
		badge.ID = uuid.NewString()
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&badge).Error; err != nil {
			return fmt.Errorf("seed badge %s: %w", trigger.Code, err)
		}
	}
	return nil
}

// Setup is Migrate followed by SeedBadges.
func Setup(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	return SeedBadges(db)
}
