package models

import "time"

// Education is a structured learning program (workshops, courses, tutoring).
type Education struct {
	ActivityBase

	StartDate *time.Time `gorm:"type:date;index" json:"start_date"`
	StartTime string     `gorm:"type:varchar(16)" json:"start_time"` // as typed by the admin, e.g. "14:00" or "14h"
	Price     float64    `gorm:"default:0" json:"price"`

	Duration string `json:"duration"` // e.g. "6 weeks"
	Level    string `gorm:"type:varchar(32)" json:"level"`
}

func (Education) TableName() string { return "educations" }
