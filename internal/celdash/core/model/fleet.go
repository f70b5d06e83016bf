package model

import "time"

// DateRange is the half-open interval [From, To).
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Days returns the range length in whole days, rounded to the nearest day.
func (r DateRange) Days() int {
	d := r.To.Sub(r.From).Hours() / 24
	if d < 0 {
		return 0
	}
	return int(d + 0.5)
}

// DeviceFilter narrows the device selection. Empty or "all" fields match
// everything; a VehicleID overrides every other field.
type DeviceFilter struct {
	VehicleID string `json:"vehicle,omitempty"`
	RegionID  string `json:"region,omitempty"`
	BranchID  string `json:"branch,omitempty"`
	Year      string `json:"year,omitempty"`
	Make      string `json:"make,omitempty"`
	VType     string `json:"vtype,omitempty"`
}
