package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"activity-hub/database"
	"activity-hub/events"
	"activity-hub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDay = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Setup(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func dayPtr(offset int) *time.Time {
	d := testDay.AddDate(0, 0, offset)
	return &d
}

func seedClub(t *testing.T, db *gorm.DB, mutate func(*models.Club)) models.Club {
	t.Helper()
	c := models.Club{
		ActivityBase: models.ActivityBase{
			ID:       uuid.NewString(),
			Title:    "Chess club",
			Category: "social",
			IsActive: true,
		},
		MeetingDate: dayPtr(0),
		MeetingTime: "14:00",
	}
	if mutate != nil {
		mutate(&c)
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedEducation(t *testing.T, db *gorm.DB, mutate func(*models.Education)) models.Education {
	t.Helper()
	e := models.Education{
		ActivityBase: models.ActivityBase{
			ID:       uuid.NewString(),
			Title:    "Coding workshop",
			Category: "learning",
			IsActive: true,
		},
		StartDate: dayPtr(0),
		StartTime: "10:00",
		Price:     15,
		Duration:  "6 weeks",
		Level:     "beginner",
	}
	if mutate != nil {
		mutate(&e)
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func seedDirect(t *testing.T, db *gorm.DB, mutate func(*models.DirectActivity)) models.DirectActivity {
	t.Helper()
	d := models.DirectActivity{
		ActivityBase: models.ActivityBase{
			ID:       uuid.NewString(),
			Title:    "Park cleanup",
			Category: "environment",
			IsActive: true,
		},
		EventDate: dayPtr(0),
		EventTime: "09:00",
		IsFree:    true,
	}
	if mutate != nil {
		mutate(&d)
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func seedMember(t *testing.T, db *gorm.DB, m models.Member) models.Member {
	t.Helper()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Level == 0 {
		m.Level = 1
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func registeredCount(t *testing.T, db *gorm.DB, model any, id string) int {
	t.Helper()
	var count int
	require.NoError(t, db.Model(model).Select("registered_count").Where("id = ?", id).Scan(&count).Error)
	return count
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.InscriptionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.InscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
