package model

import "time"

// FaultState is the normalised tri-state of a fault record.
type FaultState int

const (
	FaultStateActive FaultState = iota
	FaultStatePending
	FaultStateCleared
)

func (s FaultState) String() string {
	switch s {
	case FaultStatePending:
		return "Pending"
	case FaultStateCleared:
		return "Cleared"
	default:
		return "Active"
	}
}

// RawState is the fault state exactly as reported: a number or a name.
type RawState struct {
	Name      string
	Number    int
	HasNumber bool
}

// Lamps are the warning lamp flags reported with a fault.
type Lamps struct {
	RedStop        bool
	Malfunction    bool
	AmberWarning   bool
	ProtectWarning bool
}

// FaultRecord is one fault occurrence. It is immutable once fetched.
type FaultRecord struct {
	ID       string
	DeviceID string

	// Diagnostic carries the reference embedded in the record; often only the id.
	Diagnostic *Diagnostic

	// FailureMode is nil when the record has none.
	FailureMode *FailureMode

	DateTime time.Time
	State    RawState

	// Severity is the reported severity enumeration, empty when absent.
	Severity string
	Lamps    Lamps

	// Controller is nil when the record has none.
	Controller *Controller
}

// DiagnosticID returns the id of the referenced diagnostic, or "".
func (f FaultRecord) DiagnosticID() string {
	if f.Diagnostic == nil {
		return ""
	}
	return f.Diagnostic.ID
}

// TripRecord is a trip of one device. Zero Start or Stop means absent.
type TripRecord struct {
	DeviceID string
	Start    time.Time
	Stop     time.Time
}
