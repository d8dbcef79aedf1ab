package services

import (
	"strings"
	"time"

	"activity-hub/models"
)

// DefaultAssumedDuration applies when an activity has no usable end time.
const DefaultAssumedDuration = 2 * time.Hour

var timeOfDayLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "3PM", "3 PM"}

// parseTimeOfDay accepts "14:00", "14:00:00", "2:00 PM", "2PM" and the "14h00"/"14h" form.
func parseTimeOfDay(raw string) (time.Duration, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if i := strings.Index(s, "H"); i > 0 && !strings.Contains(s, "M") {
		s = s[:i] + ":" + s[i+1:]
		if strings.HasSuffix(s, ":") {
			s += "00"
		}
	}
	for _, layout := range timeOfDayLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

func atTimeOfDay(date time.Time, offset time.Duration) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(offset)
}

// ScheduledStart is the schedule's date at its time of day, or midnight when the time is unparseable.
func ScheduledStart(s models.Schedule) time.Time {
	offset, _ := parseTimeOfDay(s.TimeOfDay)
	return atTimeOfDay(s.Date, offset)
}

// DeriveStatus places now relative to the window [start, end). End is the schedule's own end time
// when it parses and falls after the start, otherwise start+assumed.
func DeriveStatus(s models.Schedule, assumed time.Duration, now time.Time) models.LiveStatus {
	if assumed <= 0 {
		assumed = DefaultAssumedDuration
	}
	start := ScheduledStart(s)
	end := start.Add(assumed)
	if offset, ok := parseTimeOfDay(s.EndTime); ok {
		if explicit := atTimeOfDay(s.Date, offset); explicit.After(start) {
			end = explicit
		}
	}

	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case now.Before(end):
		return models.StatusLive
	default:
		return models.StatusEnded
	}
}
