package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"activity-hub/metrics"
	"activity-hub/models"

	"gorm.io/gorm"
)

const catalogPageSize = 50

// ActivityCache is a short-lived store for FirstActive results. Implemented by cache.Redis.
type ActivityCache interface {
	GetActivities(ctx context.Context, key string) ([]models.Activity, bool, error)
	SetActivities(ctx context.Context, key string, items []models.Activity, ttl time.Duration) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, prefix string) error
}

type ActivityFilter struct {
	Category     models.Category
	FeaturedOnly bool
}

// CatalogService reads the three activity tables and normalizes their rows.
type CatalogService struct {
	DB       *gorm.DB
	Location *time.Location
	Log      *slog.Logger
	Metrics  *metrics.Metrics

	Cache    ActivityCache
	CacheTTL time.Duration

	pageSize int
}

func NewCatalogService(db *gorm.DB, loc *time.Location, logger *slog.Logger) *CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		DB:       db,
		Location: loc,
		Log:      logger.With("component", "catalog"),
		pageSize: catalogPageSize,
	}
}

// WithCache enables caching of FirstActive results for ttl.
func (s *CatalogService) WithCache(c ActivityCache, ttl time.Duration) *CatalogService {
	s.Cache = c
	s.CacheTTL = ttl
	return s
}

// ListActive yields every active activity across the catalogs, variant by variant in date order.
// Rows are fetched a page at a time as the caller ranges; ranging again re-queries.
// Malformed rows are logged and skipped. A query failure is yielded once and ends the sequence.
func (s *CatalogService) ListActive(ctx context.Context, filter ActivityFilter) iter.Seq2[models.Activity, error] {
	return func(yield func(models.Activity, error) bool) {
		for _, v := range models.Variants {
			spec := variantSpecs[v]
			for offset := 0; ; offset += s.pageSize {
				q := s.DB.WithContext(ctx).Where("is_active = ?", true)
				if filter.FeaturedOnly {
					q = q.Where("is_featured = ?", true)
				}
				q = q.Order(spec.DateColumn + " ASC").Order("id ASC").Limit(s.pageSize).Offset(offset)

				rows, err := spec.fetch(q, s.Location)
				if err != nil {
					yield(models.Activity{}, fmt.Errorf("list %s: %w", spec.Table, err))
					return
				}
				for _, row := range rows {
					if row.err != nil {
						s.skipMalformed(v, row.err)
						continue
					}
					if filter.Category != "" && row.activity.Category != filter.Category {
						continue
					}
					if !yield(row.activity, nil) {
						return
					}
				}
				if len(rows) < s.pageSize {
					break
				}
			}
		}
	}
}

// GetByRef loads one activity, active or not. Unknown variants and missing rows are ErrActivityNotFound.
func (s *CatalogService) GetByRef(ctx context.Context, v models.Variant, id string) (models.Activity, error) {
	ref := models.ActivityRef{Variant: v, ID: id}
	spec, ok := SpecFor(v)
	if !ok || id == "" {
		return models.Activity{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}

	rows, err := spec.fetch(s.DB.WithContext(ctx).Where("id = ?", id).Limit(1), s.Location)
	if err != nil {
		return models.Activity{}, fmt.Errorf("get %s: %w", ref, err)
	}
	if len(rows) == 0 {
		return models.Activity{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	if rows[0].err != nil {
		s.skipMalformed(v, rows[0].err)
		return models.Activity{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	return rows[0].activity, nil
}

// FirstActive returns the first limit active activities of one variant, ascending by date.
// Past dates are included; the caller derives their status.
func (s *CatalogService) FirstActive(ctx context.Context, v models.Variant, limit int) ([]models.Activity, error) {
	spec, ok := SpecFor(v)
	if !ok {
		return nil, fmt.Errorf("%s: %w", v, ErrActivityNotFound)
	}
	key := fmt.Sprintf("first:%s:%d", v, limit)

	if s.Cache != nil {
		items, hit, err := s.Cache.GetActivities(ctx, key)
		if err != nil {
			s.Log.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
		s.Metrics.IncCacheLookup(hit)
		if hit {
			return items, nil
		}
	}

	q := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order(spec.DateColumn + " ASC").Order("id ASC").
		Limit(limit)

	rows, err := spec.fetch(q, s.Location)
	if err != nil {
		return nil, fmt.Errorf("first active %s: %w", spec.Table, err)
	}
	items := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		if row.err != nil {
			s.skipMalformed(v, row.err)
			continue
		}
		items = append(items, row.activity)
	}

	if s.Cache != nil {
		if err := s.Cache.SetActivities(ctx, key, items, s.CacheTTL); err != nil {
			s.Log.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}

// SetCoverImage stores the public URL of an uploaded cover.
func (s *CatalogService) SetCoverImage(ctx context.Context, v models.Variant, id, url string) error {
	ref := models.ActivityRef{Variant: v, ID: id}
	spec, ok := SpecFor(v)
	if !ok {
		return fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	res := s.DB.WithContext(ctx).Model(spec.New()).Where("id = ?", id).Update("cover_image_url", url)
	if res.Error != nil {
		return fmt.Errorf("set cover %s: %w", ref, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	s.invalidate(ctx, v)
	return nil
}

// PublishDue activates every activity whose publish_at has passed. Returns how many were published.
func (s *CatalogService) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, v := range models.Variants {
		spec := variantSpecs[v]
		res := s.DB.WithContext(ctx).Model(spec.New()).
			Where("is_active = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, now).
			Updates(map[string]any{"is_active": true, "publish_at": nil})
		if res.Error != nil {
			return total, fmt.Errorf("publish %s: %w", spec.Table, res.Error)
		}
		if res.RowsAffected > 0 {
			s.Log.InfoContext(ctx, "published scheduled activities", "variant", v, "count", res.RowsAffected)
			s.invalidate(ctx, v)
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (s *CatalogService) invalidate(ctx context.Context, v models.Variant) {
	inv, ok := s.Cache.(cacheInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, "first:"+string(v)+":"); err != nil {
		s.Log.WarnContext(ctx, "cache invalidation failed", "variant", v, "error", err)
	}
}

func (s *CatalogService) skipMalformed(v models.Variant, err error) {
	if !errors.Is(err, ErrMalformedRecord) {
		s.Log.Error("unexpected normalization error", "variant", v, "error", err)
	}
	s.Log.Warn("skipping malformed catalog row", "variant", v, "error", err)
	s.Metrics.IncMalformed(string(v))
}
