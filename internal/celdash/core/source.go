package core

import (
	"context"
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// DiagnosticTypeObdFault selects general vehicle (OBD-class) faults.
const DiagnosticTypeObdFault = "ObdFault"

// FaultQuery selects fault records over [From, To). Exactly one of
// DiagnosticID or DiagnosticType is normally set.
type FaultQuery struct {
	From, To       time.Time
	DiagnosticID   string
	DiagnosticType string
	Limit          int
}

// TripQuery selects the trips of the whole fleet over [From, To).
type TripQuery struct {
	From, To time.Time
	Limit    int
}

// ReferenceSource loads the diagnostic dictionaries.
type ReferenceSource interface {
	Diagnostics(ctx context.Context, limit int) ([]model.Diagnostic, error)
	FailureModes(ctx context.Context, limit int) ([]model.FailureMode, error)
}

// FoundationSource loads the organisation and its devices.
type FoundationSource interface {
	Devices(ctx context.Context, limit int) ([]model.Device, error)
	Groups(ctx context.Context, limit int) ([]model.Group, error)
	DeviceStatuses(ctx context.Context, limit int) ([]model.DeviceStatus, error)
}

// RecordSource loads time-windowed fault and trip records.
type RecordSource interface {
	// Faults issues a single call.
	Faults(ctx context.Context, q FaultQuery) ([]model.FaultRecord, error)

	// FaultsBatch issues all queries as one batched call. Results keep query
	// order; the batch fails as a unit.
	FaultsBatch(ctx context.Context, qs []FaultQuery) ([][]model.FaultRecord, error)

	// Trips issues a single call.
	Trips(ctx context.Context, q TripQuery) ([]model.TripRecord, error)
}

// Source is the fleet telematics API as seen by the engine.
// In celdash, this is implemented by the geotab adapter.
type Source interface {
	ReferenceSource
	FoundationSource
	RecordSource
}
