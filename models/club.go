package models

import "time"

// Club is a recurring group; the catalog exposes its next meeting.
type Club struct {
	ActivityBase

	MeetingDate   *time.Time `gorm:"type:date;index" json:"meeting_date"`
	MeetingTime   string     `gorm:"type:varchar(16)" json:"meeting_time"`
	MembershipFee float64    `gorm:"default:0" json:"membership_fee"`
}

func (Club) TableName() string { return "clubs" }
