package models

import (
	"time"

	"activity-hub/utils"

	"gorm.io/gorm"
)

// Member is a local snapshot of a platform user: the identity fields are mirrored from the
// profile service by the sync worker, the counters are owned here.
type Member struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"user_id"` // the opaque id the gateway forwards
	Username       string `gorm:"index" json:"username"`

	Country     string `gorm:"type:varchar(64)" json:"country"`
	Region      string `json:"region"`
	Locality    string `json:"locality"`
	RegionKey   string `gorm:"index" json:"-"`
	LocalityKey string `gorm:"index" json:"-"`

	// Score only ever grows; it is written by the scoring policy.
	Score int64 `gorm:"not null;default:0;index" json:"score"`
	Level int   `gorm:"not null;default:1" json:"level"`
	// AttendedCount is written by the registration ledger only.
	AttendedCount int64 `gorm:"not null;default:0" json:"attended_count"`

	LastAttendedAt *time.Time `json:"last_attended_at,omitempty"`
	LastLevelUpAt  *time.Time `json:"last_level_up_at,omitempty"`
	// ProfileSyncedAt is the profile service's updated_at for the last mirrored change.
	ProfileSyncedAt *time.Time `gorm:"index" json:"-"`

	Timestamps
}

// BeforeSave keeps the accent- and case-insensitive scope keys in step with the display values.
func (m *Member) BeforeSave(tx *gorm.DB) error {
	m.RegionKey = utils.NormalizeKey(m.Region)
	m.LocalityKey = utils.NormalizeKey(m.Locality)
	return nil
}
