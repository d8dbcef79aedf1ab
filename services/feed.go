package services

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"activity-hub/metrics"
	"activity-hub/models"

	"golang.org/x/sync/errgroup"
)

// ActivitySource is the catalog read the feed depends on.
type ActivitySource interface {
	FirstActive(ctx context.Context, v models.Variant, limit int) ([]models.Activity, error)
}

type HomeFeed struct {
	Events    []models.Activity `json:"events"`
	Learning  []models.Activity `json:"learning"`
	Community []models.Activity `json:"community"`
}

type FeedService struct {
	Catalog         ActivitySource
	PerVariant      int
	SectionSize     int
	AssumedDuration time.Duration
	Log             *slog.Logger
	Metrics         *metrics.Metrics
}

func NewFeedService(catalog ActivitySource, perVariant, sectionSize int, assumed time.Duration) *FeedService {
	return &FeedService{
		Catalog:         catalog,
		PerVariant:      perVariant,
		SectionSize:     sectionSize,
		AssumedDuration: assumed,
		Log:             slog.Default().With("component", "feed"),
	}
}

// BuildHomeFeed fetches each catalog concurrently and assembles the three home sections.
func (s *FeedService) BuildHomeFeed(ctx context.Context, now time.Time) (HomeFeed, error) {
	start := time.Now()
	defer s.Metrics.ObserveFeedBuild(start)

	results := make([][]models.Activity, len(models.Variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range models.Variants {
		g.Go(func() error {
			items, err := s.Catalog.FirstActive(gctx, v, s.PerVariant)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.Log.ErrorContext(ctx, "home feed fetch failed", "error", err)
		return HomeFeed{}, err
	}

	byVariant := make(map[models.Variant][]models.Activity, len(models.Variants))
	for i, v := range models.Variants {
		byVariant[v] = results[i]
	}
	return AssembleFeed(byVariant, now, s.AssumedDuration, s.SectionSize), nil
}

// AssembleFeed builds the sections from per-variant lists that are already in catalog order.
//   - events: every item, by scheduled start then ref
//   - learning: education then club, catalog order
//   - community: direct activities by votes, most first; equal votes keep catalog order
func AssembleFeed(byVariant map[models.Variant][]models.Activity, now time.Time, assumed time.Duration, size int) HomeFeed {
	annotate := func(items []models.Activity) []models.Activity {
		out := make([]models.Activity, len(items))
		for i, a := range items {
			a.Status = DeriveStatus(a.Schedule, assumed, now)
			out[i] = a
		}
		return out
	}

	education := annotate(byVariant[models.VariantEducation])
	clubs := annotate(byVariant[models.VariantClub])
	direct := annotate(byVariant[models.VariantDirect])

	events := slices.Concat(education, clubs, direct)
	slices.SortStableFunc(events, func(a, b models.Activity) int {
		if c := ScheduledStart(a.Schedule).Compare(ScheduledStart(b.Schedule)); c != 0 {
			return c
		}
		return cmp.Compare(a.ActivityRef.String(), b.ActivityRef.String())
	})

	learning := slices.Concat(education, clubs)

	community := slices.Clone(direct)
	slices.SortStableFunc(community, func(a, b models.Activity) int {
		return cmp.Compare(b.Votes(), a.Votes())
	})

	return HomeFeed{
		Events:    truncate(events, size),
		Learning:  truncate(learning, size),
		Community: truncate(community, size),
	}
}

func truncate(items []models.Activity, n int) []models.Activity {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []models.Activity{}
	}
	return items
}
