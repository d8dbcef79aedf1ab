package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"activity-hub/models"
	"activity-hub/utils"

	"gorm.io/gorm"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 500
)

type ScopeKind string

const (
	ScopeCountry  ScopeKind = "country"
	ScopeRegion   ScopeKind = "region"
	ScopeLocality ScopeKind = "locality"
)

// Scope selects the members a leaderboard ranks. Country may be empty (the whole platform).
type Scope struct {
	Kind     ScopeKind `json:"scope"`
	Country  string    `json:"country,omitempty"`
	Region   string    `json:"region,omitempty"`
	Locality string    `json:"locality,omitempty"`
}

// ParseScope builds and validates a scope from query values. An empty kind means country.
func ParseScope(kind, country, region, locality string) (Scope, error) {
	k := ScopeKind(strings.ToLower(strings.TrimSpace(kind)))
	if k == "" || k == "national" || k == "nation" {
		k = ScopeCountry
	}
	s := Scope{
		Kind:     k,
		Country:  strings.TrimSpace(country),
		Region:   strings.TrimSpace(region),
		Locality: strings.TrimSpace(locality),
	}
	return s, s.Validate()
}

func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeCountry:
		return nil
	case ScopeRegion:
		if s.Region == "" {
			return fmt.Errorf("%w: region scope requires a region", ErrInvalidScope)
		}
		return nil
	case ScopeLocality:
		if s.Region == "" {
			return fmt.Errorf("%w: locality scope requires a region", ErrInvalidScope)
		}
		if s.Locality == "" {
			return fmt.Errorf("%w: locality scope requires a locality", ErrInvalidScope)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown scope %q", ErrInvalidScope, s.Kind)
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Score         int64  `json:"score"`
	AttendedCount int64  `json:"attended_count"`
	Level         int    `json:"level"`
	Country       string `json:"country,omitempty"`
	Region        string `json:"region,omitempty"`
	Locality      string `json:"locality,omitempty"`
}

type LeaderboardService struct {
	DB           *gorm.DB
	DefaultLimit int
}

func NewLeaderboardService(db *gorm.DB, defaultLimit int) *LeaderboardService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLeaderboardLimit
	}
	return &LeaderboardService{DB: db, DefaultLimit: defaultLimit}
}

func (s *LeaderboardService) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.DefaultLimit
	}
	return min(limit, MaxLeaderboardLimit)
}

// Rank returns the scope's top members. Place names match ignoring case and accents.
func (s *LeaderboardService) Rank(ctx context.Context, scope Scope, limit int) ([]LeaderboardEntry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	limit = s.clampLimit(limit)

	q := s.DB.WithContext(ctx).Model(&models.Member{})
	if scope.Country != "" {
		q = q.Where("LOWER(country) = ?", strings.ToLower(scope.Country))
	}
	switch scope.Kind {
	case ScopeRegion:
		q = q.Where("region_key = ?", utils.NormalizeKey(scope.Region))
	case ScopeLocality:
		q = q.Where("region_key = ? AND locality_key = ?",
			utils.NormalizeKey(scope.Region), utils.NormalizeKey(scope.Locality))
	}

	var members []models.Member
	if err := q.Order("score DESC").Order("attended_count DESC").Order("external_user_id ASC").
		Limit(limit).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	return RankMembers(members, limit), nil
}

// RankMembers orders by score, then attended count, then user id, and numbers the result
// 1..k with no shared ranks.
func RankMembers(members []models.Member, limit int) []LeaderboardEntry {
	sorted := slices.Clone(members)
	slices.SortStableFunc(sorted, func(a, b models.Member) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.AttendedCount, a.AttendedCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ExternalUserID, b.ExternalUserID)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]LeaderboardEntry, len(sorted))
	for i, m := range sorted {
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        m.ExternalUserID,
			Username:      m.Username,
			Score:         m.Score,
			AttendedCount: m.AttendedCount,
			Level:         m.Level,
			Country:       m.Country,
			Region:        m.Region,
			Locality:      m.Locality,
		}
	}
	return entries
}

// PositionOf returns userID's rank within scope, or 0 when the member is unranked.
func (s *LeaderboardService) PositionOf(ctx context.Context, scope Scope, userID string) (int, error) {
	entries, err := s.Rank(ctx, scope, MaxLeaderboardLimit)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return 0, nil
}
