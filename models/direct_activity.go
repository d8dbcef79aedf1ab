package models

import "time"

// DirectActivity is a one-off community activity proposed and voted on by members.
type DirectActivity struct {
	ActivityBase

	EventDate *time.Time `gorm:"type:date;index" json:"event_date"`
	EventTime string     `gorm:"type:varchar(16)" json:"event_time"`
	EndTime   string     `gorm:"type:varchar(16)" json:"end_time"`
	IsFree    bool       `json:"is_free"`
	Price     float64    `gorm:"default:0" json:"price"`

	Votes          int    `gorm:"default:0;index" json:"votes"`
	TargetAudience string `json:"target_audience"`
}

func (DirectActivity) TableName() string { return "direct_activities" }
