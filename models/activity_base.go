package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityBase holds the columns every catalog table shares. Schedule and pricing
// columns are deliberately left to each variant since the three admin tools name them differently.
type ActivityBase struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title            string     `gorm:"not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	Category         string     `gorm:"type:varchar(32);default:'other'" json:"category"`
	Location         string     `json:"location"`
	CenterID         string     `gorm:"index" json:"center_id"`
	CenterName       string     `json:"center_name"`
	OrganizerContact string     `json:"organizer_contact"`
	CoverImageURL    string     `gorm:"type:text" json:"cover_image_url"`
	Capacity         *int       `json:"capacity"` // nil = unlimited
	RegisteredCount  int        `gorm:"not null;default:0" json:"registered_count"`
	IsActive         bool       `gorm:"default:false;index" json:"is_active"`
	IsFeatured       bool       `gorm:"default:false" json:"is_featured"`
	RequiresApproval *bool      `json:"requires_approval,omitempty"`
	PublishAt        *time.Time `gorm:"index" json:"publish_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
