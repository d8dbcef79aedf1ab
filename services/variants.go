package services

import (
	"fmt"
	"time"

	"activity-hub/models"
	"activity-hub/utils"

	"gorm.io/gorm"
)

// VariantSpec describes how one catalog table maps onto models.Activity.
type VariantSpec struct {
	Variant    models.Variant
	Label      string
	Table      string
	DateColumn string

	// New returns a pointer to the zero row, for gorm.Model scoping.
	New func() any

	fetch func(q *gorm.DB, loc *time.Location) ([]normalized, error)
}

type normalized struct {
	activity models.Activity
	err      error
}

var variantSpecs = map[models.Variant]VariantSpec{
	models.VariantEducation: {
		Variant:    models.VariantEducation,
		Label:      variantLabel(models.VariantEducation),
		Table:      "educations",
		DateColumn: "start_date",
		New:        func() any { return &models.Education{} },
		fetch: func(q *gorm.DB, loc *time.Location) ([]normalized, error) {
			return fetchRows(q, loc, normalizeEducation)
		},
	},
	models.VariantClub: {
		Variant:    models.VariantClub,
		Label:      variantLabel(models.VariantClub),
		Table:      "clubs",
		DateColumn: "meeting_date",
		New:        func() any { return &models.Club{} },
		fetch: func(q *gorm.DB, loc *time.Location) ([]normalized, error) {
			return fetchRows(q, loc, normalizeClub)
		},
	},
	models.VariantDirect: {
		Variant:    models.VariantDirect,
		Label:      variantLabel(models.VariantDirect),
		Table:      "direct_activities",
		DateColumn: "event_date",
		New:        func() any { return &models.DirectActivity{} },
		fetch: func(q *gorm.DB, loc *time.Location) ([]normalized, error) {
			return fetchRows(q, loc, normalizeDirect)
		},
	},
}

func variantLabel(v models.Variant) string {
	if v == models.VariantDirect {
		return utils.DisplayLabel("direct_activity")
	}
	return utils.DisplayLabel(string(v))
}

// SpecFor returns the metadata for v.
func SpecFor(v models.Variant) (VariantSpec, bool) {
	spec, ok := variantSpecs[v]
	return spec, ok
}

func fetchRows[T any](q *gorm.DB, loc *time.Location, normalize func(*T, *time.Location) (models.Activity, error)) ([]normalized, error) {
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]normalized, len(rows))
	for i := range rows {
		a, err := normalize(&rows[i], loc)
		out[i] = normalized{activity: a, err: err}
	}
	return out, nil
}

func normalizeEducation(e *models.Education, loc *time.Location) (models.Activity, error) {
	a, err := fromBase(e.ActivityBase, models.VariantEducation, e.StartDate, loc)
	if err != nil {
		return a, err
	}
	a.Schedule.TimeOfDay = e.StartTime
	a.Pricing = models.PricingFromAmount(e.Price)
	a.Education = &models.EducationDetails{Duration: e.Duration, Level: e.Level}
	return a, nil
}

func normalizeClub(c *models.Club, loc *time.Location) (models.Activity, error) {
	a, err := fromBase(c.ActivityBase, models.VariantClub, c.MeetingDate, loc)
	if err != nil {
		return a, err
	}
	a.Schedule.TimeOfDay = c.MeetingTime
	a.Pricing = models.PricingFromAmount(c.MembershipFee)
	return a, nil
}

func normalizeDirect(d *models.DirectActivity, loc *time.Location) (models.Activity, error) {
	a, err := fromBase(d.ActivityBase, models.VariantDirect, d.EventDate, loc)
	if err != nil {
		return a, err
	}
	a.Schedule.TimeOfDay = d.EventTime
	a.Schedule.EndTime = d.EndTime
	if d.IsFree {
		a.Pricing = models.Pricing{Kind: models.PricingFree}
	} else {
		a.Pricing = models.PricingFromAmount(d.Price)
	}
	a.Direct = &models.DirectDetails{Votes: d.Votes, TargetAudience: d.TargetAudience}
	return a, nil
}

func fromBase(b models.ActivityBase, v models.Variant, date *time.Time, loc *time.Location) (models.Activity, error) {
	ref := models.ActivityRef{Variant: v, ID: b.ID}
	switch {
	case b.ID == "":
		return models.Activity{ActivityRef: ref}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case b.Title == "":
		return models.Activity{ActivityRef: ref}, fmt.Errorf("%w: %s missing title", ErrMalformedRecord, ref)
	case date == nil || date.IsZero():
		return models.Activity{ActivityRef: ref}, fmt.Errorf("%w: %s missing schedule date", ErrMalformedRecord, ref)
	}
	if loc == nil {
		loc = time.UTC
	}

	y, m, d := date.Date()
	return models.Activity{
		ActivityRef:      ref,
		VariantLabel:     variantLabel(v),
		Title:            b.Title,
		Slug:             utils.Slugify(b.Title, b.ID),
		Description:      b.Description,
		Category:         models.ParseCategory(b.Category),
		Schedule:         models.Schedule{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)},
		Location:         b.Location,
		CenterID:         b.CenterID,
		CenterName:       b.CenterName,
		OrganizerContact: b.OrganizerContact,
		CoverImageURL:    b.CoverImageURL,
		Capacity:         b.Capacity,
		RegisteredCount:  b.RegisteredCount,
		IsActive:         b.IsActive,
		IsFeatured:       b.IsFeatured,
		RequiresApproval: b.RequiresApproval,
	}, nil
}
