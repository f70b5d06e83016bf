package rows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/correlate"
	"github.com/autopeer-io/celdash/internal/celdash/enrich"
)

type dict struct{}

func (dict) Diagnostic(id string) (model.Diagnostic, bool) {
	switch id {
	case "d-cel":
		return model.Diagnostic{ID: id, Name: "Vehicle warning light is on", Code: "168"}, true
	case "d-misfire":
		return model.Diagnostic{ID: id, Name: "Misfire", Code: "P0300"}, true
	}
	return model.Diagnostic{}, false
}

func (dict) FailureMode(string) (model.FailureMode, bool) { return model.FailureMode{}, false }

type celByDiag string

func (c celByDiag) IsCel(f model.FaultRecord) bool { return f.DiagnosticID() == string(c) }

func fault(device, diag string) model.FaultRecord {
	return model.FaultRecord{ID: device + diag, DeviceID: device, Diagnostic: &model.Diagnostic{ID: diag}}
}

var (
	now   = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	fleet = Fleet{
		All: []model.Device{{ID: "b1", Name: "Truck 1"}, {ID: "b2"}, {ID: "b3", Name: "Van"}},
		Placements: map[string]model.Placement{
			"b1": {Region: "East", RegionID: "r1", Branch: "Boston", BranchID: "br1"},
		},
		Info: map[string]model.DeviceInfo{
			"b1": {Year: "2019", Make: "Ford", VType: "Pickup", Engine: "V8"},
		},
		Statuses: map[string]model.DeviceStatus{
			"b1": {DeviceID: "b1", LastReported: now.Add(-3*24*time.Hour - time.Hour), IsDriving: true},
			"b2": {DeviceID: "b2", LastReported: now.Add(-4 * 24 * time.Hour)},
		},
	}
)

func newBuilder() *Builder {
	return NewBuilder(enrich.New(dict{}, nil), celByDiag("d-cel"), 0)
}

func TestBuilder_DtcRows(t *testing.T) {
	faults := []model.FaultRecord{
		fault("b1", "d-cel"), fault("b1", "d-cel"), fault("b1", "d-misfire"),
		fault("b2", "d-cel"),
		fault("b3", "d-cel"),
	}
	selected := []model.Device{{ID: "b1"}, {ID: "b2"}}

	rows := newBuilder().DtcRows(fleet, faults, selected)

	require.Len(t, rows, 4)
	assert.Equal(t, "Truck 1", rows[0].Unit)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 2, rows[1].Count, "every row of a repeated code carries the total")
	assert.Equal(t, 1, rows[2].Count)
	assert.Equal(t, "P0300", rows[2].Code)
	assert.Equal(t, "b2", rows[3].Unit)
	assert.Equal(t, "Informational", rows[3].Severity)
}

func TestBuilder_UnitRows(t *testing.T) {
	all := []model.FaultRecord{
		fault("b1", "d-cel"), fault("b1", "d-cel"), fault("b1", "d-misfire"), fault("b1", "d-misfire"),
		fault("b1", "d-other"),
		fault("b2", "d-misfire"),
	}
	m := correlate.Metrics{"b1": {DrivenDays: 4, CelDays: 1, CelPct: 25}}
	devices := []model.Device{{ID: "b1", Name: "Truck 1"}, {ID: "b2"}, {ID: "b3"}}

	rows := newBuilder().UnitRows(fleet, devices, m, all)

	require.Len(t, rows, 3)
	b1 := rows[0]
	assert.Equal(t, "East", b1.Region)
	assert.Equal(t, "Boston", b1.Branch)
	assert.Equal(t, "Ford", b1.Make)
	assert.Equal(t, 25.0, b1.CelPct)
	assert.Equal(t, 2, b1.ActiveDtcs)
	assert.Equal(t, 2, b1.RepeatDtcs)
	require.NotNil(t, b1.LastReported)

	b2 := rows[1]
	assert.Equal(t, "b2", b2.Name)
	assert.Equal(t, model.Placeholder, b2.Region)
	assert.Equal(t, model.Placeholder, b2.Year)
	assert.Equal(t, 0, b2.ActiveDtcs)
	assert.Equal(t, 0, b2.RepeatDtcs)

	assert.Nil(t, rows[2].LastReported)
}

func TestBuilder_CommRows(t *testing.T) {
	devices := []model.Device{{ID: "b1", Name: "Truck 1"}, {ID: "b2"}, {ID: "b3"}}

	rows := newBuilder().CommRows(fleet, devices, now)

	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].DaysSince)
	assert.Equal(t, model.StatusReporting, rows[0].Status)
	assert.Equal(t, "Yes", rows[0].Driving)

	assert.Equal(t, 4, rows[1].DaysSince)
	assert.Equal(t, model.StatusNotReporting, rows[1].Status)
	assert.Equal(t, "No", rows[1].Driving)

	assert.Nil(t, rows[2].LastComm)
	assert.Equal(t, 0, rows[2].DaysSince)
	assert.Equal(t, model.StatusReporting, rows[2].Status)
}

func TestFilters(t *testing.T) {
	dtc := []model.DtcRow{
		{Code: "168", Unit: "Truck 1", Description: "Vehicle warning light is on", State: "Active"},
		{Code: "P0300", Unit: "Van", Description: "Misfire", State: "Cleared"},
	}
	assert.Len(t, FilterDtc(dtc, "all", ""), 2)
	assert.Len(t, FilterDtc(dtc, "Cleared", ""), 1)
	assert.Len(t, FilterDtc(dtc, "", "TRUCK"), 1)
	assert.Len(t, FilterDtc(dtc, "Active", "misfire"), 0)

	units := []model.UnitRow{{Name: "Truck 1", Region: "East", Make: "Ford"}, {Name: "Van", Branch: "Boston"}}
	assert.Len(t, FilterUnits(units, "ford"), 1)
	assert.Len(t, FilterUnits(units, "bos"), 1)
	assert.Len(t, FilterUnits(units, " "), 2)

	comm := []model.CommRow{
		{Name: "Truck 1", Status: model.StatusReporting},
		{Name: "Van", Status: model.StatusNotReporting, Region: "West"},
	}
	assert.Len(t, FilterComm(comm, CommReporting, ""), 1)
	assert.Len(t, FilterComm(comm, CommNotReporting, "west"), 1)
	assert.Len(t, FilterComm(comm, "all", "truck"), 1)
}
