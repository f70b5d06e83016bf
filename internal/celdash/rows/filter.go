package rows

import (
	"strings"

	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// Communication status filters.
const (
	CommReporting    = "reporting"
	CommNotReporting = "not-reporting"
)

func isAll(s string) bool { return s == "" || s == "all" }

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterDtc keeps rows in state (empty or "all" keeps every state) whose
// code, unit or description contains q case-insensitively.
func FilterDtc(rows []model.DtcRow, state, q string) []model.DtcRow {
	q = strings.ToLower(strings.TrimSpace(q))
	return lo.Filter(rows, func(r model.DtcRow, _ int) bool {
		if !isAll(state) && r.State != state {
			return false
		}
		return q == "" || containsFold(q, r.Code, r.Unit, r.Description)
	})
}

// FilterUnits keeps rows whose name, region, branch or make contains q.
func FilterUnits(rows []model.UnitRow, q string) []model.UnitRow {
	q = strings.ToLower(strings.TrimSpace(q))
	return lo.Filter(rows, func(r model.UnitRow, _ int) bool {
		return q == "" || containsFold(q, r.Name, r.Region, r.Branch, r.Make)
	})
}

// FilterComm keeps rows matching status ("reporting", "not-reporting" or
// all) whose name, region or branch contains q.
func FilterComm(rows []model.CommRow, status, q string) []model.CommRow {
	q = strings.ToLower(strings.TrimSpace(q))
	return lo.Filter(rows, func(r model.CommRow, _ int) bool {
		switch status {
		case CommReporting:
			if r.Status != model.StatusReporting {
				return false
			}
		case CommNotReporting:
			if r.Status != model.StatusNotReporting {
				return false
			}
		}
		return q == "" || containsFold(q, r.Name, r.Region, r.Branch)
	})
}
