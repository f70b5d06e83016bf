// Package trend re-aggregates driven and CEL device-days into day, week or
// month buckets.
package trend

import (
	"sort"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

type bucket struct {
	driven    int
	celDriven int
}

// Build returns one point per bucket that contains a day with at least one
// driven device, in ascending key order. A bucket's value is the share of
// its driven device-days that were also CEL device-days. Build is pure.
func Build(cal calendar.Calendar, g calendar.Granularity, deviceIDs []string,
	celFaults []model.FaultRecord, trips map[string][]model.TripRecord) []model.TrendPoint {
	selected := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		selected[id] = struct{}{}
	}

	// day key -> device ids
	drivenByDay := map[string]map[string]struct{}{}
	mark := func(m map[string]map[string]struct{}, day, id string) {
		devs, ok := m[day]
		if !ok {
			devs = map[string]struct{}{}
			m[day] = devs
		}
		devs[id] = struct{}{}
	}

	for _, id := range deviceIDs {
		for _, t := range trips[id] {
			if !t.Start.IsZero() {
				mark(drivenByDay, cal.DayKey(t.Start), id)
			}
			if !t.Stop.IsZero() {
				mark(drivenByDay, cal.DayKey(t.Stop), id)
			}
		}
	}

	celByDay := map[string]map[string]struct{}{}
	for _, f := range celFaults {
		if _, ok := selected[f.DeviceID]; !ok || f.DateTime.IsZero() {
			continue
		}
		mark(celByDay, cal.DayKey(f.DateTime), f.DeviceID)
	}

	buckets := map[string]*bucket{}
	for day, driven := range drivenByDay {
		key := calendar.BucketKey(g, day)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		for id := range driven {
			b.driven++
			if _, ok := celByDay[day][id]; ok {
				b.celDriven++
			}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]model.TrendPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		var value float64
		if b.driven > 0 {
			value = float64(b.celDriven) / float64(b.driven) * 100
		}
		points = append(points, model.TrendPoint{Label: k, Value: value, Driven: b.driven, CelDriven: b.celDriven})
	}
	return points
}
