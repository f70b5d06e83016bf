package geotab

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/pkg/fleetapi"
)

// RPC is the subset of the fleet API client the adapter needs.
type RPC interface {
	Get(ctx context.Context, call fleetapi.Call) ([]gjson.Result, error)
	MultiCall(ctx context.Context, calls []fleetapi.Call) ([][]gjson.Result, error)
}

var _ core.Source = (*Source)(nil)

// Source adapts the fleet JSON-RPC API to core.Source.
type Source struct {
	rpc RPC
}

// NewSource creates a Source on top of rpc.
func NewSource(rpc RPC) *Source {
	return &Source{rpc: rpc}
}

func (s *Source) get(ctx context.Context, typeName string, search any, limit int) ([]gjson.Result, error) {
	rs, err := s.rpc.Get(ctx, fleetapi.Call{TypeName: typeName, Search: search, ResultsLimit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", typeName, err)
	}
	return rs, nil
}

func (s *Source) Devices(ctx context.Context, limit int) ([]model.Device, error) {
	rs, err := s.get(ctx, "Device", nil, limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toDevice), nil
}

func (s *Source) Groups(ctx context.Context, limit int) ([]model.Group, error) {
	rs, err := s.get(ctx, "Group", nil, limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toGroup), nil
}

func (s *Source) DeviceStatuses(ctx context.Context, limit int) ([]model.DeviceStatus, error) {
	rs, err := s.get(ctx, "DeviceStatusInfo", nil, limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toDeviceStatus), nil
}

func (s *Source) Diagnostics(ctx context.Context, limit int) ([]model.Diagnostic, error) {
	rs, err := s.get(ctx, "Diagnostic", nil, limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toDiagnostic), nil
}

func (s *Source) FailureModes(ctx context.Context, limit int) ([]model.FailureMode, error) {
	rs, err := s.get(ctx, "FailureMode", nil, limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toFailureMode), nil
}

func (s *Source) Faults(ctx context.Context, q core.FaultQuery) ([]model.FaultRecord, error) {
	rs, err := s.get(ctx, "FaultData", faultSearch(q), q.Limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toFault), nil
}

func (s *Source) FaultsBatch(ctx context.Context, qs []core.FaultQuery) ([][]model.FaultRecord, error) {
	calls := make([]fleetapi.Call, 0, len(qs))
	for _, q := range qs {
		calls = append(calls, fleetapi.Call{TypeName: "FaultData", Search: faultSearch(q), ResultsLimit: q.Limit})
	}

	results, err := s.rpc.MultiCall(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("failed to multi call FaultData: %w", err)
	}

	out := make([][]model.FaultRecord, 0, len(results))
	for _, rs := range results {
		out = append(out, mapAll(rs, toFault))
	}
	return out, nil
}

func (s *Source) Trips(ctx context.Context, q core.TripQuery) ([]model.TripRecord, error) {
	search := map[string]any{
		"fromDate": formatTime(q.From),
		"toDate":   formatTime(q.To),
	}
	rs, err := s.get(ctx, "Trip", search, q.Limit)
	if err != nil {
		return nil, err
	}
	return mapAll(rs, toTrip), nil
}

func faultSearch(q core.FaultQuery) map[string]any {
	search := map[string]any{
		"fromDate": formatTime(q.From),
		"toDate":   formatTime(q.To),
	}
	switch {
	case q.DiagnosticID != "":
		search["diagnosticSearch"] = map[string]any{"id": q.DiagnosticID}
	case q.DiagnosticType != "":
		search["diagnosticSearch"] = map[string]any{"diagnosticType": q.DiagnosticType}
	}
	return search
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
