package model

import "time"

// Placeholder is rendered for any missing text field.
const Placeholder = "--"

// Device is a fleet vehicle as known to the telematics API.
type Device struct {
	ID   string
	Name string

	// GroupIDs lists every group the device is a direct member of.
	GroupIDs []string

	Year        string
	Make        string
	VehicleType string
	EngineType  string

	// VIN is the vehicle identification number, if reported.
	VIN string
}

// DisplayName returns the device name, or its id when unnamed.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Group is a node of the organisation tree. ParentID is empty for roots.
type Group struct {
	ID       string
	Name     string
	ParentID string
}

// DeviceStatus is the latest communication state of a device.
type DeviceStatus struct {
	DeviceID string

	// LastReported is the zero time when the device never reported.
	LastReported time.Time
	IsDriving    bool
}

// DeviceInfo holds the display attributes used by filters and unit rows.
// Missing values are Placeholder.
type DeviceInfo struct {
	Year   string `json:"year"`
	Make   string `json:"make"`
	VType  string `json:"vtype"`
	Engine string `json:"engine"`
}

// Placement locates a device in the region/branch hierarchy.
// Names are Placeholder and ids empty when the device is outside it.
type Placement struct {
	Region   string `json:"region"`
	RegionID string `json:"regionId,omitempty"`
	Branch   string `json:"branch"`
	BranchID string `json:"branchId,omitempty"`
}
