package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/correlate"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/internal/celdash/groups"
	"github.com/autopeer-io/celdash/internal/celdash/trend"
	"github.com/autopeer-io/celdash/internal/pkg/metrics"
	"github.com/autopeer-io/celdash/pkg/log"
)

// Request selects the date range and devices of an Apply.
type Request struct {
	// Preset is one of the calendar presets; From and To only apply to custom.
	Preset string `json:"preset"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`

	Filter model.DeviceFilter `json:"filter"`
}

func normalizeVin(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// Apply resolves the range, selects devices and fetches and correlates
// their records. The current snapshot is replaced only on success. A
// superseded Apply returns fetch.ErrCancelled and leaves the snapshot alone.
// Requests rejected before fetching never supersede an Apply in flight.
func (s *Service) Apply(ctx context.Context, req Request) (*Snapshot, error) {
	s.mu.RLock()
	f := s.fleet
	s.mu.RUnlock()
	if f == nil {
		return nil, ErrNotInitialized
	}

	now := s.now()
	r, err := s.cfg.Calendar.Resolve(req.Preset, req.From, req.To, now)
	if err != nil {
		return nil, err
	}

	selected := groups.Select(f.devices, f.placements, f.info, req.Filter)
	ids := lo.Map(selected, func(d model.Device, _ int) string { return d.ID })

	// Only a request that reaches the fetch supersedes the one in flight.
	s.mu.Lock()
	s.applySeq++
	seq := s.applySeq
	s.mu.Unlock()

	s.resetProgress(seq)
	res, err := s.orch.Fetch(ctx, fetch.Request{
		Range:            r,
		DeviceIDs:        ids,
		CelDiagnosticIDs: s.ref.CelDiagnosticIDs(),
	}, func(phase fetch.Phase, pct float64) { s.onProgress(seq, phase, pct) })
	s.settleProgress(seq)
	if err != nil {
		return nil, err
	}

	snap := s.build(f, r, req, selected, res, now)

	s.mu.Lock()
	if seq != s.applySeq {
		s.mu.Unlock()
		return nil, fetch.ErrCancelled
	}
	s.snapshot = snap
	s.mu.Unlock()

	metrics.FleetCelPercent.Set(snap.KPIs.Period)
	metrics.SelectedDevices.Set(float64(len(selected)))

	s.notify(ctx, snap)
	return snap, nil
}

func (s *Service) build(f *fleetState, r model.DateRange, req Request, selected []model.Device,
	res *fetch.Result, now time.Time) *Snapshot {
	cal := s.cfg.Calendar
	ids := lo.Map(selected, func(d model.Device, _ int) string { return d.ID })
	fleet := f.rows()

	m := correlate.Compute(cal, ids, res.CelFaults, res.Trips)
	g := calendar.AutoGranularity(r)
	points := trend.Build(cal, g, ids, res.CelFaults, res.Trips)
	dtc := s.builder.DtcRows(fleet, res.AllFaults, selected)

	return &Snapshot{
		SessionID:   res.SessionID,
		Range:       r,
		Preset:      req.Preset,
		Filter:      req.Filter,
		Granularity: g,
		DeviceCount: len(selected),
		Trend:       points,
		KPIs:        correlate.ComputeKPIs(m, points),
		Top:         correlate.ComputeTopLists(selected, m, dtc),
		Dtc:         dtc,
		Units:       s.builder.UnitRows(fleet, selected, m, res.AllFaults),
		Comm:        s.builder.CommRows(fleet, selected, now),
		GeneratedAt: now,

		deviceIDs: ids,
		celFaults: res.CelFaults,
		trips:     res.Trips,
	}
}

func (s *Service) notify(ctx context.Context, snap *Snapshot) {
	if s.notifier == nil {
		return
	}
	summary := &core.Summary{
		Session:     snap.SessionID,
		Database:    s.cfg.Database,
		From:        snap.Range.From,
		To:          snap.Range.To,
		Granularity: string(snap.Granularity),
		Devices:     snap.DeviceCount,
		FleetCelPct: snap.KPIs.Period,
		ActiveCel:   snap.KPIs.ActiveCel,
		Faults:      len(snap.Dtc),
		GeneratedAt: snap.GeneratedAt,
	}
	if err := s.notifier.Notify(ctx, summary); err != nil {
		log.Debug("Summary not delivered to every sink", "session", snap.SessionID)
	}
}

// Rebucket re-runs the trend bucketer on the current snapshot at g. It
// never fetches and does not modify the snapshot.
func (s *Service) Rebucket(g calendar.Granularity) ([]model.TrendPoint, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	if g == "" || g == snap.Granularity {
		return snap.Trend, nil
	}
	return trend.Build(s.cfg.Calendar, g, snap.deviceIDs, snap.celFaults, snap.trips), nil
}
