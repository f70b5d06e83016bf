// Package calendar produces the canonical day, week and month keys used to
// bucket fleet activity, and resolves date presets into ranges.
package calendar

import (
	"fmt"
	"time"

	"github.com/golang-module/carbon/v2"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Calendar computes period keys in a single fleet timezone.
type Calendar struct {
	loc *time.Location
}

// New returns a Calendar for loc. A nil loc means time.Local.
func New(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// Location returns the fleet timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// DayKey returns the calendar day of t in the fleet timezone as "2006-01-02".
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(dayLayout)
}

// WeekKey maps a day key to the day key of the Monday starting its ISO week.
// Malformed keys are returned unchanged.
func WeekKey(dayKey string) string {
	d, err := time.Parse(dayLayout, dayKey)
	if err != nil {
		return dayKey
	}
	return carbon.CreateFromStdTime(d).SetWeekStartsAt(carbon.Monday).StartOfWeek().ToStdTime().Format(dayLayout)
}

// MonthKey maps a day key to its year-month key "2006-01".
func MonthKey(dayKey string) string {
	d, err := time.Parse(dayLayout, dayKey)
	if err != nil {
		return dayKey
	}
	return d.Format(monthLayout)
}

// Granularity is the bucket width of a trend series.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts "day", "week" or "month".
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Day, Week, Month:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// AutoGranularity picks day for ranges up to 14 days, week up to 60 days and
// month beyond that. Range length is rounded to whole days.
func AutoGranularity(r model.DateRange) Granularity {
	switch days := r.Days(); {
	case days <= 14:
		return Day
	case days <= 60:
		return Week
	default:
		return Month
	}
}

// BucketKey maps a day key to the key of its bucket at granularity g.
// Unknown granularities bucket by month.
func BucketKey(g Granularity, dayKey string) string {
	switch g {
	case Day:
		return dayKey
	case Week:
		return WeekKey(dayKey)
	default:
		return MonthKey(dayKey)
	}
}
