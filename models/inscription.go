package models

import "time"

type InscriptionStatus string

const (
	InscriptionPending  InscriptionStatus = "pending"
	InscriptionApproved InscriptionStatus = "approved"
	InscriptionRejected InscriptionStatus = "rejected"
	InscriptionAttended InscriptionStatus = "attended"
)

// ParseInscriptionStatus returns false for anything outside the four lifecycle states.
func ParseInscriptionStatus(s string) (InscriptionStatus, bool) {
	switch st := InscriptionStatus(s); st {
	case InscriptionPending, InscriptionApproved, InscriptionRejected, InscriptionAttended:
		return st, true
	}
	return "", false
}

// Holds reports whether the inscription occupies a seat (every status but rejected).
func (s InscriptionStatus) Holds() bool {
	return s != InscriptionRejected
}

// Inscription links one user to one activity. The composite unique index keeps it to a
// single row per (user, activity) pair; a rejected row is revived on re-join instead of duplicated.
type Inscription struct {
	ID         string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string            `gorm:"not null;uniqueIndex:idx_inscription_user_activity,priority:1;index" json:"user_id"`
	Variant    Variant           `gorm:"type:varchar(16);not null;uniqueIndex:idx_inscription_user_activity,priority:2;index:idx_inscription_activity,priority:1" json:"variant"`
	ActivityID string            `gorm:"not null;uniqueIndex:idx_inscription_user_activity,priority:3;index:idx_inscription_activity,priority:2" json:"activity_id"`
	Status     InscriptionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DecidedAt  *time.Time        `json:"decided_at,omitempty"`
	AttendedAt *time.Time        `json:"attended_at,omitempty"`
}

func (i Inscription) Ref() ActivityRef {
	return ActivityRef{Variant: i.Variant, ID: i.ActivityID}
}
