package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"activity-hub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberProfile is the identity subset mirrored from the profile service.
type MemberProfile struct {
	ExternalUserID string
	Username       string
	Country        string
	Region         string
	Locality       string
	UpdatedAt      time.Time
}

type MemberService struct {
	DB *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{DB: db}
}

// UpsertProfile writes identity and location fields only; score and counters are never touched.
func (s *MemberService) UpsertProfile(ctx context.Context, p MemberProfile) error {
	if p.ExternalUserID == "" {
		return errors.New("profile without external user id")
	}
	syncedAt := p.UpdatedAt
	member := models.Member{
		ID:              uuid.NewString(),
		ExternalUserID:  p.ExternalUserID,
		Username:        p.Username,
		Country:         p.Country,
		Region:          p.Region,
		Locality:        p.Locality,
		Level:           1,
		ProfileSyncedAt: &syncedAt,
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "country", "region", "locality",
			"region_key", "locality_key", "profile_synced_at", "updated_at",
		}),
	}).Create(&member).Error
}

// LastProfileSync is the newest mirrored profile timestamp, zero when nothing was synced.
func (s *MemberService) LastProfileSync(ctx context.Context) (time.Time, error) {
	var last *time.Time
	var members []models.Member
	err := s.DB.WithContext(ctx).
		Where("profile_synced_at IS NOT NULL").
		Order("profile_synced_at DESC").
		Limit(1).
		Find(&members).Error
	if err != nil {
		return time.Time{}, err
	}
	if len(members) > 0 {
		last = members[0].ProfileSyncedAt
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

func (s *MemberService) Get(ctx context.Context, userID string) (models.Member, error) {
	var m models.Member
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, fmt.Errorf("member %s: %w", userID, gorm.ErrRecordNotFound)
	}
	return m, err
}

// Search matches username or locality, case-insensitively.
func (s *MemberService) Search(ctx context.Context, query string, limit int) ([]models.Member, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	db := s.DB.WithContext(ctx).Model(&models.Member{}).Limit(limit).Order("username ASC")
	if query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ? OR locality_key LIKE ?", term, term)
	}
	var members []models.Member
	if err := db.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("member search: %w", err)
	}
	return members, nil
}
