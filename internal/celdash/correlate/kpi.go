package correlate

import (
	"sort"

	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// TopN is the length of each ranked list.
const TopN = 10

// ComputeKPIs derives the headline figures. PriorDiff compares the mean of
// the second half of the trend with the first half, split at len/2, and is
// only set for two or more points.
func ComputeKPIs(m Metrics, trend []model.TrendPoint) model.KPIs {
	k := model.KPIs{
		Period:    m.FleetPercentage(),
		ActiveCel: m.ActiveCel(),
	}
	k.Current = k.Period

	if len(trend) >= 2 {
		mid := len(trend) / 2
		prior := meanValue(trend[:mid])
		current := meanValue(trend[mid:])
		diff := current - prior
		k.Current = current
		k.PriorDiff = &diff
	}
	return k
}

func meanValue(points []model.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	return lo.SumBy(points, func(p model.TrendPoint) float64 { return p.Value }) / float64(len(points))
}

// ComputeTopLists ranks devices by CEL percentage and DTC count, and codes
// by recurrence. rows are the DTC rows of the selected devices.
func ComputeTopLists(devices []model.Device, m Metrics, rows []model.DtcRow) model.TopLists {
	var highest []model.RankedEntry
	for _, d := range devices {
		if dm, ok := m[d.ID]; ok && dm.DrivenDays > 0 {
			highest = append(highest, model.RankedEntry{Label: d.DisplayName(), Value: dm.CelPct})
		}
	}

	byDevice := lo.GroupBy(rows, func(r model.DtcRow) string { return r.DeviceID })
	mostDtcs := make([]model.RankedEntry, 0, len(byDevice))
	for _, rs := range byDevice {
		mostDtcs = append(mostDtcs, model.RankedEntry{Label: rs[0].Unit, Value: float64(len(rs))})
	}

	byCode := lo.GroupBy(rows, func(r model.DtcRow) string { return r.Code })
	recurring := make([]model.RankedEntry, 0, len(byCode))
	for code, rs := range byCode {
		label := code
		named, ok := lo.Find(rs, func(r model.DtcRow) bool {
			return r.Description != "" && r.Description != model.Placeholder
		})
		if ok {
			label = code + " - " + named.Description
		}
		recurring = append(recurring, model.RankedEntry{Label: label, Value: float64(len(rs))})
	}

	return model.TopLists{
		HighestCel: top(highest),
		MostDtcs:   top(mostDtcs),
		Recurring:  top(recurring),
	}
}

// top sorts by value descending, then label, and keeps the first TopN.
func top(entries []model.RankedEntry) []model.RankedEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > TopN {
		entries = entries[:TopN]
	}
	if entries == nil {
		return []model.RankedEntry{}
	}
	return entries
}
