// Package correlate intersects the driven days of each device with the days
// on which a CEL-class fault was reported.
package correlate

import (
	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// DayKeys is a set of calendar day keys.
type DayKeys map[string]struct{}

// DeviceMetrics are the correlation results of one device.
type DeviceMetrics struct {
	DrivenDays int     `json:"drivenDays"`
	CelDays    int     `json:"celDays"`
	CelPct     float64 `json:"celPct"`
}

// Metrics maps device id to its correlation results.
type Metrics map[string]DeviceMetrics

// DrivenDays returns the days on which a trip started or stopped.
func DrivenDays(cal calendar.Calendar, trips []model.TripRecord) DayKeys {
	days := DayKeys{}
	for _, t := range trips {
		if !t.Start.IsZero() {
			days[cal.DayKey(t.Start)] = struct{}{}
		}
		if !t.Stop.IsZero() {
			days[cal.DayKey(t.Stop)] = struct{}{}
		}
	}
	return days
}

// CelDaysByDevice groups the days of CEL faults by device.
func CelDaysByDevice(cal calendar.Calendar, celFaults []model.FaultRecord) map[string]DayKeys {
	out := map[string]DayKeys{}
	for _, f := range celFaults {
		if f.DeviceID == "" || f.DateTime.IsZero() {
			continue
		}
		days, ok := out[f.DeviceID]
		if !ok {
			days = DayKeys{}
			out[f.DeviceID] = days
		}
		days[cal.DayKey(f.DateTime)] = struct{}{}
	}
	return out
}

// Compute returns the metrics of every device in deviceIDs. Only days that
// are both driven and CEL count towards CelDays; a device with no driven
// days has a CelPct of 0.
func Compute(cal calendar.Calendar, deviceIDs []string, celFaults []model.FaultRecord,
	trips map[string][]model.TripRecord) Metrics {
	celDays := CelDaysByDevice(cal, celFaults)

	out := make(Metrics, len(deviceIDs))
	for _, id := range deviceIDs {
		driven := DrivenDays(cal, trips[id])
		cel := celDays[id]

		m := DeviceMetrics{DrivenDays: len(driven)}
		for day := range driven {
			if _, ok := cel[day]; ok {
				m.CelDays++
			}
		}
		if m.DrivenDays > 0 {
			m.CelPct = float64(m.CelDays) / float64(m.DrivenDays) * 100
		}
		out[id] = m
	}
	return out
}

// FleetPercentage is the unweighted mean CelPct over devices with at least
// one driven day. It is 0 when no device was driven.
func (m Metrics) FleetPercentage() float64 {
	driven := lo.Filter(lo.Values(m), func(d DeviceMetrics, _ int) bool { return d.DrivenDays > 0 })
	if len(driven) == 0 {
		return 0
	}
	return lo.SumBy(driven, func(d DeviceMetrics) float64 { return d.CelPct }) / float64(len(driven))
}

// ActiveCel counts devices with at least one CEL day.
func (m Metrics) ActiveCel() int {
	return len(lo.PickBy(m, func(_ string, d DeviceMetrics) bool { return d.CelDays > 0 }))
}
