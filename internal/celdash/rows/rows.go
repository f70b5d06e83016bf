// Package rows shapes correlation and enrichment output into the display
// records of the DTC, unit and communication tables.
package rows

import (
	"math"
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/correlate"
	"github.com/autopeer-io/celdash/internal/celdash/enrich"
)

// DefaultNotReportingDays is the number of silent days after which a device
// is reported as not reporting.
const DefaultNotReportingDays = 3

// CelClassifier tells CEL-class faults apart.
// In celdash, this is implemented by refdata.Cache.
type CelClassifier interface {
	IsCel(f model.FaultRecord) bool
}

// Fleet is the device context rows are built against.
type Fleet struct {
	// All is every device of the database, used for unit names.
	All []model.Device

	Placements map[string]model.Placement
	Info       map[string]model.DeviceInfo
	Statuses   map[string]model.DeviceStatus
}

func (f Fleet) placement(id string) model.Placement {
	if p, ok := f.Placements[id]; ok {
		return p
	}
	return model.Placement{Region: model.Placeholder, Branch: model.Placeholder}
}

func (f Fleet) info(id string) model.DeviceInfo {
	if i, ok := f.Info[id]; ok {
		return i
	}
	return model.DeviceInfo{Year: model.Placeholder, Make: model.Placeholder, VType: model.Placeholder, Engine: model.Placeholder}
}

func (f Fleet) lastReported(id string) *time.Time {
	s, ok := f.Statuses[id]
	if !ok || s.LastReported.IsZero() {
		return nil
	}
	t := s.LastReported
	return &t
}

// Builder builds table rows.
type Builder struct {
	enricher         *enrich.Enricher
	cel              CelClassifier
	notReportingDays int
}

// NewBuilder creates a Builder. A non-positive notReportingDays means
// DefaultNotReportingDays.
func NewBuilder(enricher *enrich.Enricher, cel CelClassifier, notReportingDays int) *Builder {
	if notReportingDays <= 0 {
		notReportingDays = DefaultNotReportingDays
	}
	return &Builder{enricher: enricher, cel: cel, notReportingDays: notReportingDays}
}

// Selected returns the faults that belong to one of devices.
func Selected(faults []model.FaultRecord, devices []model.Device) []model.FaultRecord {
	ids := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		ids[d.ID] = struct{}{}
	}
	var out []model.FaultRecord
	for _, f := range faults {
		if _, ok := ids[f.DeviceID]; ok {
			out = append(out, f)
		}
	}
	return out
}

// DtcRows enriches the faults of the selected devices. Every row carries the
// total number of faults sharing its device and code.
func (b *Builder) DtcRows(fleet Fleet, faults []model.FaultRecord, selected []model.Device) []model.DtcRow {
	names := make(map[string]string, len(fleet.All))
	for _, d := range fleet.All {
		names[d.ID] = d.DisplayName()
	}

	filtered := Selected(faults, selected)
	counts := b.enricher.CountOccurrences(filtered)

	out := make([]model.DtcRow, 0, len(filtered))
	for _, f := range filtered {
		row := b.enricher.Enrich(f)
		row.Unit = names[f.DeviceID]
		if row.Unit == "" {
			row.Unit = f.DeviceID
		}
		row.Count = counts[enrich.OccurrenceKey{DeviceID: f.DeviceID, Code: row.Code}]
		out = append(out, row)
	}
	return out
}

// UnitRows summarises each selected device. allFaults is the merged fault
// collection of the fetch.
func (b *Builder) UnitRows(fleet Fleet, devices []model.Device, m correlate.Metrics, allFaults []model.FaultRecord) []model.UnitRow {
	type tally struct {
		cel   int
		codes map[string]int
	}
	tallies := map[string]*tally{}
	for _, f := range allFaults {
		t, ok := tallies[f.DeviceID]
		if !ok {
			t = &tally{codes: map[string]int{}}
			tallies[f.DeviceID] = t
		}
		if b.cel.IsCel(f) {
			t.cel++
		}
		t.codes[b.enricher.Code(f)]++
	}

	out := make([]model.UnitRow, 0, len(devices))
	for _, d := range devices {
		p, info := fleet.placement(d.ID), fleet.info(d.ID)
		row := model.UnitRow{
			ID:           d.ID,
			Name:         d.DisplayName(),
			Region:       p.Region,
			Branch:       p.Branch,
			Year:         info.Year,
			Make:         info.Make,
			VType:        info.VType,
			Engine:       info.Engine,
			CelPct:       m[d.ID].CelPct,
			LastReported: fleet.lastReported(d.ID),
		}
		if t, ok := tallies[d.ID]; ok {
			row.ActiveDtcs = t.cel
			for _, n := range t.codes {
				if n > 1 {
					row.RepeatDtcs++
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// CommRows reports when each selected device last communicated. Devices
// that never reported count as 0 days silent.
func (b *Builder) CommRows(fleet Fleet, devices []model.Device, now time.Time) []model.CommRow {
	out := make([]model.CommRow, 0, len(devices))
	for _, d := range devices {
		p := fleet.placement(d.ID)
		row := model.CommRow{
			ID:       d.ID,
			Name:     d.DisplayName(),
			Region:   p.Region,
			Branch:   p.Branch,
			LastComm: fleet.lastReported(d.ID),
			Driving:  "No",
		}
		if row.LastComm != nil {
			row.DaysSince = int(math.Floor(now.Sub(*row.LastComm).Hours() / 24))
		}
		if s, ok := fleet.Statuses[d.ID]; ok && s.IsDriving {
			row.Driving = "Yes"
		}
		row.Status = model.StatusReporting
		if row.DaysSince > b.notReportingDays {
			row.Status = model.StatusNotReporting
		}
		out = append(out, row)
	}
	return out
}
