package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/golang-module/carbon/v2"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// Date range presets.
const (
	PresetYesterday = "yesterday"
	Preset7Days     = "7days"
	Preset30Days    = "30days"
	PresetCustom    = "custom"
)

// ErrInvalidRange is wrapped by every Resolve error.
var ErrInvalidRange = errors.New("invalid date range")

// Presets lists the accepted preset names.
var Presets = []string{PresetYesterday, Preset7Days, Preset30Days, PresetCustom}

// Resolve turns a preset into a date range relative to now. Ranges end at
// 23:59:59 of their last day. For the custom preset an empty from means
// 30 days before now and an empty to means the end of today. Unknown presets
// resolve as 30days.
func (c Calendar) Resolve(preset, from, to string, now time.Time) (model.DateRange, error) {
	today := carbon.CreateFromStdTime(now.In(c.Location()))
	end := endOfDay(today)

	switch preset {
	case PresetYesterday:
		y := today.SubDays(1)
		return model.DateRange{From: y.StartOfDay().ToStdTime(), To: endOfDay(y)}, nil

	case Preset7Days:
		return model.DateRange{From: today.SubDays(7).StartOfDay().ToStdTime(), To: end}, nil

	case PresetCustom:
		r := model.DateRange{From: now.Add(-30 * 24 * time.Hour), To: end}
		if s := strings.TrimSpace(from); s != "" {
			t, err := c.parseDate(s)
			if err != nil {
				return model.DateRange{}, fmt.Errorf("%w: from date %q: %v", ErrInvalidRange, from, err)
			}
			r.From = t.StartOfDay().ToStdTime()
		}
		if s := strings.TrimSpace(to); s != "" {
			t, err := c.parseDate(s)
			if err != nil {
				return model.DateRange{}, fmt.Errorf("%w: to date %q: %v", ErrInvalidRange, to, err)
			}
			r.To = endOfDay(t)
		}
		if !r.To.After(r.From) {
			return model.DateRange{}, fmt.Errorf("%w: %s to %s is empty", ErrInvalidRange, r.From.Format(dayLayout), r.To.Format(dayLayout))
		}
		return r, nil

	default:
		return model.DateRange{From: today.SubDays(30).StartOfDay().ToStdTime(), To: end}, nil
	}
}

func (c Calendar) parseDate(s string) (carbon.Carbon, error) {
	t, err := dateparse.ParseIn(s, c.Location())
	if err != nil {
		return carbon.Carbon{}, err
	}
	return carbon.CreateFromStdTime(t.In(c.Location())), nil
}

func endOfDay(c carbon.Carbon) time.Time {
	return c.EndOfDay().ToStdTime().Truncate(time.Second)
}
