package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"activity-hub/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB  *gorm.DB
	Log *slog.Logger
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db, Log: slog.Default().With("component", "badges")}
}

// AwardMilestones grants every badge whose threshold member now meets and returns the codes
// newly awarded. Runs on the caller's transaction; already-held badges are skipped.
func (s *BadgeService) AwardMilestones(tx *gorm.DB, member models.Member, inscriptionID string) ([]string, error) {
	var types []models.BadgeType
	if err := tx.Order("code ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("load badge types: %w", err)
	}

	var awarded []string
	for _, bt := range types {
		if !meetsThreshold(member, bt.Threshold) {
			continue
		}
		badge := models.MemberBadge{
			ID:          uuid.NewString(),
			UserID:      member.ExternalUserID,
			BadgeTypeID: bt.ID,
			Metadata:    datatypes.JSONMap{"inscription_id": inscriptionID},
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge)
		if res.Error != nil {
			return awarded, fmt.Errorf("award %s: %w", bt.Code, res.Error)
		}
		if res.RowsAffected == 1 {
			awarded = append(awarded, bt.Code)
			s.Log.Info("badge awarded", "code", bt.Code, "user_id", member.ExternalUserID)
		}
	}
	return awarded, nil
}

// meetsThreshold requires every key of the threshold to be reached. Values come back from
// JSON columns as float64, from the seed table as int.
func meetsThreshold(m models.Member, threshold datatypes.JSONMap) bool {
	if len(threshold) == 0 {
		return false
	}
	for key, raw := range threshold {
		required, ok := asInt64(raw)
		if !ok {
			return false
		}
		switch key {
		case "attended_count":
			if m.AttendedCount < required {
				return false
			}
		case "level":
			if int64(m.Level) < required {
				return false
			}
		case "score":
			if m.Score < required {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// MemberBadgeView is a held badge joined with its type.
type MemberBadgeView struct {
	ID          string            `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IconURL     string            `json:"icon_url"`
	Rarity      string            `json:"rarity"`
	AwardedAt   time.Time         `json:"awarded_at"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

func (s *BadgeService) ListForMember(ctx context.Context, userID string) ([]MemberBadgeView, error) {
	var views []MemberBadgeView
	err := s.DB.WithContext(ctx).
		Table("member_badges AS mb").
		Select("mb.id, bt.code, bt.name, bt.description, bt.icon_url, bt.rarity, mb.awarded_at, mb.metadata").
		Joins("JOIN badge_types bt ON bt.id = mb.badge_type_id").
		Where("mb.user_id = ?", userID).
		Order("mb.awarded_at ASC").
		Scan(&views).Error
	return views, err
}
