package models

import (
	"fmt"
	"strings"
	"time"
)

// Variant identifies which of the three administered catalogs an activity comes from.
type Variant string

const (
	VariantEducation Variant = "education"
	VariantClub      Variant = "club"
	VariantDirect    Variant = "direct"
)

// Variants lists every catalog in feed order.
var Variants = []Variant{VariantEducation, VariantClub, VariantDirect}

// ParseVariant accepts the canonical names plus the plural/route spellings used by clients.
func ParseVariant(s string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "education", "educations", "program", "programs":
		return VariantEducation, true
	case "club", "clubs":
		return VariantClub, true
	case "direct", "direct-activity", "direct-activities", "direct_activity", "activity", "activities":
		return VariantDirect, true
	}
	return "", false
}

type Category string

const (
	CategorySports        Category = "sports"
	CategoryLearning      Category = "learning"
	CategorySocial        Category = "social"
	CategoryEnvironmental Category = "environmental"
	CategoryESport        Category = "e-sport"
	CategoryOther         Category = "other"
)

// ParseCategory maps admin-entered values onto the closed category set; anything unknown is "other".
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sports", "sport":
		return CategorySports
	case "learning", "education":
		return CategoryLearning
	case "social":
		return CategorySocial
	case "environmental", "environment":
		return CategoryEnvironmental
	case "e-sport", "esport", "e-sports", "esports":
		return CategoryESport
	}
	return CategoryOther
}

// ActivityRef is the stable external reference "variant:id".
type ActivityRef struct {
	Variant Variant `json:"variant"`
	ID      string  `json:"id"`
}

func (r ActivityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Variant, r.ID)
}

// Schedule is a calendar date with an optional, free-form time of day.
// Date carries the location the center operates in.
type Schedule struct {
	Date      time.Time `json:"date"`
	TimeOfDay string    `json:"time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
}

type PricingKind string

const (
	PricingFree PricingKind = "free"
	PricingPaid PricingKind = "paid"
)

type Pricing struct {
	Kind   PricingKind `json:"kind"`
	Amount float64     `json:"amount,omitempty"`
}

// PricingFromAmount treats a non-positive amount as free.
func PricingFromAmount(amount float64) Pricing {
	if amount <= 0 {
		return Pricing{Kind: PricingFree}
	}
	return Pricing{Kind: PricingPaid, Amount: amount}
}

// LiveStatus is the time-derived state of an activity.
type LiveStatus string

const (
	StatusUpcoming LiveStatus = "upcoming"
	StatusLive     LiveStatus = "live"
	StatusEnded    LiveStatus = "ended"
)

type EducationDetails struct {
	Duration string `json:"duration,omitempty"`
	Level    string `json:"level,omitempty"`
}

type DirectDetails struct {
	Votes          int    `json:"votes"`
	TargetAudience string `json:"target_audience,omitempty"`
}

// Activity is the normalized view over the three catalogs. It is never persisted as such.
type Activity struct {
	ActivityRef
	VariantLabel     string            `json:"variant_label"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	Description      string            `json:"description,omitempty"`
	Category         Category          `json:"category"`
	Schedule         Schedule          `json:"schedule"`
	Location         string            `json:"location,omitempty"`
	CenterID         string            `json:"center_id,omitempty"`
	CenterName       string            `json:"center_name,omitempty"`
	OrganizerContact string            `json:"organizer_contact,omitempty"`
	CoverImageURL    string            `json:"cover_image_url,omitempty"`
	Capacity         *int              `json:"capacity"`
	RegisteredCount  int               `json:"registered_count"`
	Pricing          Pricing           `json:"pricing"`
	IsActive         bool              `json:"is_active"`
	IsFeatured       bool              `json:"is_featured"`
	RequiresApproval *bool             `json:"requires_approval,omitempty"`
	Education        *EducationDetails `json:"education,omitempty"`
	Direct           *DirectDetails    `json:"direct,omitempty"`

	// Status is only filled in by read paths that evaluate the schedule against a clock.
	Status LiveStatus `json:"status,omitempty"`
}

// Votes returns the community vote count, zero for variants without votes.
func (a Activity) Votes() int {
	if a.Direct == nil {
		return 0
	}
	return a.Direct.Votes
}

// IsFull reports whether a capped activity has no seat left.
func (a Activity) IsFull() bool {
	return a.Capacity != nil && a.RegisteredCount >= *a.Capacity
}
