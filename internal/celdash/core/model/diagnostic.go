package model

// Diagnostic describes a measurable condition a fault can be raised for.
type Diagnostic struct {
	ID string

	// Name is the human readable description, e.g. "Vehicle warning light is on".
	Name string

	// Code is the numeric or string code, empty when absent.
	Code string

	// Source is the diagnostic source label, e.g. "Geotab GO" or "OBD".
	Source string
}

// FailureMode gives remediation text for a fault.
type FailureMode struct {
	ID                string
	Name              string
	Description       string
	RecommendedAction string
	EffectOnComponent string
}

// Controller is the subsystem or telematics device that reported a fault.
type Controller struct {
	ID   string
	Name string
}
