package app

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/celdash/cmd/celdash-report/app/options"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/rows"
)

const maxColWidth = 48

func newTable(header ...interface{}) *uitable.Table {
	t := uitable.New()
	t.MaxColWidth = maxColWidth
	t.Wrap = true
	t.AddRow(header...)
	return t
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func when(t *time.Time) string {
	if t == nil {
		return model.Placeholder
	}
	return t.Format("2006-01-02 15:04")
}

// render writes the table q selects from snap. trend is the bucketed series
// to print for the trend table.
func render(w io.Writer, q *options.QueryOptions, snap *dashboard.Snapshot, trend []model.TrendPoint) error {
	var t *uitable.Table

	switch q.Table {
	case "trend":
		t = newTable("PERIOD", "CEL%", "DRIVEN", "CEL DRIVEN")
		for _, p := range trend {
			t.AddRow(p.Label, pct(p.Value), p.Driven, p.CelDriven)
		}

	case "dtc":
		t = newTable("DATE", "UNIT", "CODE", "DESCRIPTION", "STATE", "SEVERITY", "CONTROLLER", "COUNT")
		for _, r := range rows.FilterDtc(snap.Dtc, q.State, q.Search) {
			t.AddRow(r.Date.Format("2006-01-02 15:04"), r.Unit, r.Code, r.Description, r.State, r.Severity, r.Controller, r.Count)
		}

	case "units":
		t = newTable("UNIT", "REGION", "BRANCH", "YEAR", "MAKE", "TYPE", "CEL%", "ACTIVE", "REPEAT", "LAST REPORTED")
		for _, r := range rows.FilterUnits(snap.Units, q.Search) {
			t.AddRow(r.Name, r.Region, r.Branch, r.Year, r.Make, r.VType, pct(r.CelPct), r.ActiveDtcs, r.RepeatDtcs, when(r.LastReported))
		}

	case "comm":
		t = newTable("UNIT", "REGION", "BRANCH", "LAST COMM", "DAYS", "STATUS", "DRIVING")
		for _, r := range rows.FilterComm(snap.Comm, q.Status, q.Search) {
			t.AddRow(r.Name, r.Region, r.Branch, when(r.LastComm), r.DaysSince, r.Status, r.Driving)
		}

	case "top10":
		t = newTable("LIST", "#", "LABEL", "VALUE")
		lists := []struct {
			name    string
			entries []model.RankedEntry
			format  func(float64) string
		}{
			{"Highest CEL%", snap.Top.HighestCel, pct},
			{"Most DTCs", snap.Top.MostDtcs, func(v float64) string { return fmt.Sprintf("%.0f", v) }},
			{"Recurring codes", snap.Top.Recurring, func(v float64) string { return fmt.Sprintf("%.0f", v) }},
		}
		for _, l := range lists {
			for i, e := range l.entries {
				t.AddRow(l.name, i+1, e.Label, l.format(e.Value))
			}
		}

	case "kpi":
		t = newTable("KPI", "VALUE")
		t.AddRow("Devices", snap.DeviceCount)
		t.AddRow("Period CEL%", pct(snap.KPIs.Period))
		t.AddRow("Current CEL%", pct(snap.KPIs.Current))
		diff := model.Placeholder
		if snap.KPIs.PriorDiff != nil {
			diff = fmt.Sprintf("%+.1f pts", *snap.KPIs.PriorDiff)
		}
		t.AddRow("Vs prior period", diff)
		t.AddRow("Active CEL", snap.KPIs.ActiveCel)

	default:
		return fmt.Errorf("unknown table %q", q.Table)
	}

	_, err := fmt.Fprintln(w, t)
	return err
}
