package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"activity-hub/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoringWeights are the points paid for one attendance.
type ScoringWeights struct {
	Attendance      int64
	FeaturedBonus   int64
	FirstAttendance int64
}

var DefaultScoringWeights = ScoringWeights{
	Attendance:      50,
	FeaturedBonus:   25,
	FirstAttendance: 100,
}

// ScoringService is the attendance scoring policy: points, levels, milestone badges.
// It implements ScoringHook.
type ScoringService struct {
	DB      *gorm.DB
	Badges  *BadgeService
	Weights ScoringWeights
	Clock   clockwork.Clock
	Log     *slog.Logger
}

func NewScoringService(db *gorm.DB, badges *BadgeService) *ScoringService {
	return &ScoringService{
		DB:      db,
		Badges:  badges,
		Weights: DefaultScoringWeights,
		Clock:   clockwork.NewRealClock(),
		Log:     slog.Default().With("component", "scoring"),
	}
}

// PointsFor computes the award for one attendance. attendedCount already includes it.
func (w ScoringWeights) PointsFor(activity models.Activity, attendedCount int64) int64 {
	points := w.Attendance
	if activity.IsFeatured {
		points += w.FeaturedBonus
	}
	if attendedCount <= 1 {
		points += w.FirstAttendance
	}
	return points
}

// OnAttended pays the attendance once per inscription. Replays are no-ops.
func (s *ScoringService) OnAttended(ctx context.Context, ins models.Inscription, activity models.Activity) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paid int64
		if err := tx.Model(&models.ScoreEvent{}).Where("inscription_id = ?", ins.ID).Count(&paid).Error; err != nil {
			return err
		}
		if paid > 0 {
			return nil
		}

		member, err := s.ensureMember(tx, ins.UserID)
		if err != nil {
			return err
		}

		now := s.Clock.Now()
		points := s.Weights.PointsFor(activity, member.AttendedCount)
		event := models.ScoreEvent{
			ID:            uuid.NewString(),
			UserID:        ins.UserID,
			InscriptionID: ins.ID,
			ActivityRef:   ins.Ref().String(),
			Points:        points,
			Reason:        "attendance",
			Metadata: datatypes.JSONMap{
				"category": string(activity.Category),
				"featured": activity.IsFeatured,
			},
			AwardedAt: now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		member.Score += points
		updates := map[string]any{
			"score":      gorm.Expr("score + ?", points),
			"updated_at": now,
		}
		if level := LevelFor(member.Score); level > member.Level {
			member.Level = level
			member.LastLevelUpAt = &now
			updates["level"] = level
			updates["last_level_up_at"] = now
		}
		if err := tx.Model(&models.Member{}).Where("id = ?", member.ID).UpdateColumns(updates).Error; err != nil {
			return err
		}

		if s.Badges != nil {
			if _, err := s.Badges.AwardMilestones(tx, member, ins.ID); err != nil {
				return err
			}
		}

		s.Log.InfoContext(ctx, "attendance scored",
			"user_id", ins.UserID,
			"inscription_id", ins.ID,
			"points", points,
			"score", member.Score,
			"level", member.Level,
		)
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent replay paid first
		return nil
	}
	if err != nil {
		return fmt.Errorf("score inscription %s: %w", ins.ID, err)
	}
	return nil
}

// ensureMember locks the member row, creating it when the ledger has not yet (backfills).
func (s *ScoringService) ensureMember(tx *gorm.DB, userID string) (models.Member, error) {
	var member models.Member
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("external_user_id = ?", userID).First(&member).Error
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return member, err
	}
	member = models.Member{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Level:          1,
	}
	if err := tx.Create(&member).Error; err != nil {
		return member, err
	}
	return member, nil
}
