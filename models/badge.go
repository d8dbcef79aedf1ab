package models

import (
	"time"

	"gorm.io/datatypes"
)

// BadgeType: static config, seeded from BadgeTriggers at startup
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string           `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_STEP", "REGULAR"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	IconURL     string           `gorm:"type:text" json:"icon_url"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Threshold   datatypes.JSONMap `json:"threshold"`                                     // e.g., {"attended_count": 10}
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// MemberBadge: awarded instance
type MemberBadge struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string            `gorm:"uniqueIndex:idx_member_badge,priority:1;not null" json:"user_id"`
	BadgeTypeID string            `gorm:"uniqueIndex:idx_member_badge,priority:2;not null" json:"badge_type_id"`
	AwardedAt   time.Time         `gorm:"autoCreateTime" json:"awarded_at"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"` // e.g., {"inscription_id": "..."}
}

// BadgeTriggers are the attendance milestones seeded into badge_types.
var BadgeTriggers = []BadgeType{
	{
		Code:        "FIRST_STEP",
		Name:        "First Step",
		Description: "Attended your first activity",
		Rarity:      "common",
		Threshold:   datatypes.JSONMap{"attended_count": 1},
	},
	{
		Code:        "REGULAR",
		Name:        "Regular",
		Description: "Attended 10 activities",
		Rarity:      "rare",
		Threshold:   datatypes.JSONMap{"attended_count": 10},
	},
	{
		Code:        "PILLAR",
		Name:        "Pillar of the Center",
		Description: "Attended 50 activities",
		Rarity:      "epic",
		Threshold:   datatypes.JSONMap{"attended_count": 50},
	},
	{
		Code:        "RISING_STAR",
		Name:        "Rising Star",
		Description: "Reached level 5",
		Rarity:      "rare",
		Threshold:   datatypes.JSONMap{"level": 5},
	},
	{
		Code:        "LEGEND",
		Name:        "Legend",
		Description: "Reached level 20",
		Rarity:      "legendary",
		Threshold:   datatypes.JSONMap{"level": 20},
	},
}
