package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"activity-hub/metrics"
	"activity-hub/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, seq func(func(models.Activity, error) bool)) []models.Activity {
	t.Helper()
	var out []models.Activity
	for a, err := range seq {
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestListActiveNormalizesEveryVariant(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, time.UTC, nil)

	edu := seedEducation(t, db, nil)
	club := seedClub(t, db, func(c *models.Club) { c.MembershipFee = 0 })
	direct := seedDirect(t, db, func(d *models.DirectActivity) {
		d.Votes = 4
		d.EndTime = "12:00"
		d.TargetAudience = "13-17"
	})
	seedClub(t, db, func(c *models.Club) { c.IsActive = false })

	items := collect(t, catalog.ListActive(context.Background(), ActivityFilter{}))
	require.Len(t, items, 3)

	assert.Equal(t, models.ActivityRef{Variant: models.VariantEducation, ID: edu.ID}, items[0].ActivityRef)
	assert.Equal(t, models.CategoryLearning, items[0].Category)
	assert.Equal(t, models.Pricing{Kind: models.PricingPaid, Amount: 15}, items[0].Pricing)
	assert.Equal(t, "beginner", items[0].Education.Level)
	assert.Equal(t, "Education", items[0].VariantLabel)
	assert.Equal(t, "10:00", items[0].Schedule.TimeOfDay)
	assert.True(t, items[0].Schedule.Date.Equal(testDay))

	assert.Equal(t, club.ID, items[1].ID)
	assert.Equal(t, models.PricingFree, items[1].Pricing.Kind)
	assert.Equal(t, models.CategorySocial, items[1].Category)

	assert.Equal(t, direct.ID, items[2].ID)
	assert.Equal(t, "Direct Activity", items[2].VariantLabel)
	assert.Equal(t, models.CategoryEnvironmental, items[2].Category)
	assert.Equal(t, 4, items[2].Votes())
	assert.Equal(t, "12:00", items[2].Schedule.EndTime)
	assert.Contains(t, items[2].Slug, "park-cleanup-")
}

func TestListActiveSkipsMalformedRows(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, time.UTC, nil)
	catalog.Metrics = metrics.New(prometheus.NewRegistry())

	good := seedClub(t, db, nil)
	seedClub(t, db, func(c *models.Club) { c.Title = "" })
	seedClub(t, db, func(c *models.Club) { c.MeetingDate = nil })

	items := collect(t, catalog.ListActive(context.Background(), ActivityFilter{}))
	require.Len(t, items, 1)
	assert.Equal(t, good.ID, items[0].ID)
	assert.Equal(t, 2.0, testutil.ToFloat64(catalog.Metrics.MalformedRecords.WithLabelValues("club")))
}

func TestListActivePagesLazilyAndRestarts(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, time.UTC, nil)
	catalog.pageSize = 2

	for i := 0; i < 5; i++ {
		seedClub(t, db, func(c *models.Club) {
			c.Title = fmt.Sprintf("Club %d", i)
			c.MeetingDate = dayPtr(i)
		})
	}

	seq := catalog.ListActive(context.Background(), ActivityFilter{})
	first := collect(t, seq)
	require.Len(t, first, 5)
	for i, a := range first {
		assert.Equal(t, fmt.Sprintf("Club %d", i), a.Title)
	}

	again := collect(t, seq)
	assert.Equal(t, first, again)

	var taken []string
	for a, err := range seq {
		require.NoError(t, err)
		taken = append(taken, a.Title)
		if len(taken) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"Club 0", "Club 1", "Club 2"}, taken)
}

func TestListActiveFilters(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, time.UTC, nil)

	seedClub(t, db, func(c *models.Club) { c.Category = "sport"; c.IsFeatured = true })
	seedClub(t, db, func(c *models.Club) { c.Category = "sports" })
	seedEducation(t, db, func(e *models.Education) { e.Category = "karaoke"; e.IsFeatured = true })

	sports := collect(t, catalog.ListActive(context.Background(), ActivityFilter{Category: models.CategorySports}))
	assert.Len(t, sports, 2)

	featured := collect(t, catalog.ListActive(context.Background(), ActivityFilter{FeaturedOnly: true}))
	require.Len(t, featured, 2)
	assert.Equal(t, models.CategoryOther, featured[0].Category)

	other := collect(t, catalog.ListActive(context.Background(), ActivityFilter{Category: models.CategoryOther}))
	assert.Len(t, other, 1)
}

func TestGetByRef(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, time.UTC, nil)
	edu := seedEducation(t, db, nil)
	broken := seedEducation(t, db, func(e *models.Education) { e.StartDate = nil })

	got, err := catalog.GetByRef(context.Background(), models.VariantEducation, edu.ID)
	require.NoError(t, err)
	assert.Equal(t, edu.Title, got.Title)

	_, err = catalog.GetByRef(context.Background(), models.VariantClub, edu.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = catalog.GetByRef(context.Background(), models.Variant("gig"), edu.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = catalog.GetByRef(context.Background(), models.VariantEducation, broken.ID)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

type memoryCache struct {
	entries map[string][]models.Activity
	reads   int
	failGet bool
}

func (m *memoryCache) GetActivities(_ context.Context, key string) ([]models.Activity, bool, error) {
	m.reads++
	if m.failGet {
		return nil, false, errors.New("cache offline")
	}
	items, ok := m.entries[key]
	return items, ok, nil
}

func (m *memoryCache) SetActivities(_ context.Context, key string, items []models.Activity, _ time.Duration) error {
	m.entries[key] = items
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, prefix string) error {
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	return nil
}

func TestFirstActive(t *testing.T) {
	db := newTestDB(t)
	cache := &memoryCache{entries: map[string][]models.Activity{}}
	catalog := NewCatalogService(db, time.UTC, nil).WithCache(cache, 5*time.Second)

	seedClub(t, db, func(c *models.Club) { c.Title = "yesterday"; c.MeetingDate = dayPtr(-1) })
	seedClub(t, db, func(c *models.Club) { c.Title = "later"; c.MeetingDate = dayPtr(3) })
	seedClub(t, db, func(c *models.Club) { c.Title = "today"; c.MeetingDate = dayPtr(0) })
	seedClub(t, db, func(c *models.Club) { c.Title = "hidden"; c.MeetingDate = dayPtr(-2); c.IsActive = false })

	items, err := catalog.FirstActive(context.Background(), models.VariantClub, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "yesterday", items[0].Title)
	assert.Equal(t, "today", items[1].Title)

	require.NoError(t, db.Model(&models.Club{}).Where("title = ?", "yesterday").Update("is_active", false).Error)
	cached, err := catalog.FirstActive(context.Background(), models.VariantClub, 2)
	require.NoError(t, err)
	assert.Equal(t, items, cached)

	cache.failGet = true
	fresh, err := catalog.FirstActive(context.Background(), models.VariantClub, 2)
	require.NoError(t, err)
	assert.Equal(t, "today", fresh[0].Title)
	assert.Equal(t, "later", fresh[1].Title)
}

func TestSetCoverImageAndPublishDue(t *testing.T) {
	db := newTestDB(t)
	cache := &memoryCache{entries: map[string][]models.Activity{"first:club:10": nil}}
	catalog := NewCatalogService(db, time.UTC, nil).WithCache(cache, time.Second)
	ctx := context.Background()

	club := seedClub(t, db, nil)
	require.NoError(t, catalog.SetCoverImage(ctx, models.VariantClub, club.ID, "https://cdn.example/c.png"))
	got, err := catalog.GetByRef(ctx, models.VariantClub, club.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/c.png", got.CoverImageURL)
	assert.Empty(t, cache.entries)

	assert.ErrorIs(t, catalog.SetCoverImage(ctx, models.VariantClub, "missing", "x"), ErrActivityNotFound)

	due := testDay.Add(-time.Hour)
	notYet := testDay.Add(time.Hour)
	scheduled := seedDirect(t, db, func(d *models.DirectActivity) { d.IsActive = false; d.PublishAt = &due })
	seedDirect(t, db, func(d *models.DirectActivity) { d.IsActive = false; d.PublishAt = &notYet })

	n, err := catalog.PublishDue(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	published, err := catalog.GetByRef(ctx, models.VariantDirect, scheduled.ID)
	require.NoError(t, err)
	assert.True(t, published.IsActive)
}
