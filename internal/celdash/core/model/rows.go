package model

import "time"

// DtcRow is one enriched fault for display or export.
type DtcRow struct {
	Date        time.Time `json:"date"`
	DeviceID    string    `json:"deviceId"`
	Unit        string    `json:"unit"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	Severity    string    `json:"severity"`
	FaultClass  string    `json:"faultClass"`
	Controller  string    `json:"controller"`
	Effect      string    `json:"effect"`
	Action      string    `json:"action"`

	// Count is the number of faults with the same device and code.
	Count int `json:"count"`
}

// UnitRow summarises one device over the fetched window.
type UnitRow struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Branch string  `json:"branch"`
	Year   string  `json:"year"`
	Make   string  `json:"make"`
	VType  string  `json:"vtype"`
	Engine string  `json:"engine"`
	CelPct float64 `json:"celPct"`

	// ActiveDtcs counts CEL-class faults of the device.
	ActiveDtcs int `json:"activeDtcs"`

	// RepeatDtcs counts codes seen more than once on the device.
	RepeatDtcs   int        `json:"repeatDtcs"`
	LastReported *time.Time `json:"lastReported"`
}

// CommRow reports the communication state of one device.
type CommRow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Region    string     `json:"region"`
	Branch    string     `json:"branch"`
	LastComm  *time.Time `json:"lastComm"`
	DaysSince int        `json:"daysSince"`
	Status    string     `json:"status"`
	Driving   string     `json:"driving"`
}

// Communication statuses.
const (
	StatusReporting    = "Reporting"
	StatusNotReporting = "Not Reporting"
)

// TrendPoint is one bucket of the CEL trend series.
type TrendPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`

	Driven    int `json:"driven"`
	CelDriven int `json:"celDriven"`
}

// RankedEntry is one line of a top-N list.
type RankedEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TopLists are the three top-10 lists of the trend view.
type TopLists struct {
	HighestCel []RankedEntry `json:"highestCel"`
	MostDtcs   []RankedEntry `json:"mostDtcs"`
	Recurring  []RankedEntry `json:"recurring"`
}

// KPIs are the headline figures of the trend view.
type KPIs struct {
	// Current is the second-half trend mean when a prior comparison exists, else Period.
	Current float64 `json:"current"`
	Period  float64 `json:"period"`

	// PriorDiff is nil when fewer than two trend points exist.
	PriorDiff *float64 `json:"priorDiff"`

	ActiveCel int `json:"activeCel"`
}
