package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreEvent records one attendance reward. InscriptionID is unique so a replayed
// check-in can never pay twice.
type ScoreEvent struct {
	ID            string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string            `gorm:"index;not null" json:"user_id"`
	InscriptionID string            `gorm:"uniqueIndex;not null" json:"inscription_id"`
	ActivityRef   string            `gorm:"type:varchar(80);not null" json:"activity_ref"` // "variant:id"
	Points        int64             `gorm:"not null" json:"points"`
	Reason        string            `json:"reason"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"` // e.g. {"category": "sports", "featured": true}
	AwardedAt     time.Time         `gorm:"autoCreateTime" json:"awarded_at"`
}
