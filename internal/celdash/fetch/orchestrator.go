// Package fetch retrieves the fault and trip records of a date range in
// paced time windows, with a retried batched call for CEL-class faults.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/pkg/metrics"
	"github.com/autopeer-io/celdash/pkg/log"
)

// Phase names a progress stream.
type Phase string

const (
	PhaseFaults Phase = "faults"
	PhaseTrips  Phase = "trips"
)

// ProgressFunc receives the percentage, in [0, 100], of windows completed
// within a phase. Values are monotonically increasing per phase.
type ProgressFunc func(phase Phase, pct float64)

// Overall maps a phase-local percentage onto a single 0..100 scale where
// faults fill the first half and trips the second.
func Overall(phase Phase, pct float64) float64 {
	if phase == PhaseTrips {
		return 50 + pct*0.5
	}
	return pct * 0.5
}

// Config tunes the orchestrator.
type Config struct {
	// WindowSize is the length of each sequential time window.
	WindowSize time.Duration

	// Pacing is the delay before every window except the first.
	Pacing time.Duration

	// ResultLimit caps the records returned by a single call. Reaching it
	// is not detected.
	ResultLimit int

	Retry RetryPolicy
}

// DefaultConfig returns 7 day windows, 300ms pacing, a 50000 result limit
// and the default retry policy.
func DefaultConfig() Config {
	return Config{
		WindowSize:  7 * 24 * time.Hour,
		Pacing:      300 * time.Millisecond,
		ResultLimit: 50000,
		Retry:       DefaultRetryPolicy(),
	}
}

// Request describes one fetch.
type Request struct {
	Range model.DateRange

	// DeviceIDs is the device selection. Trips of other devices are dropped.
	DeviceIDs []string

	// CelDiagnosticIDs are fetched with one batched call.
	CelDiagnosticIDs []string
}

// Result holds the records of a successful fetch.
type Result struct {
	// SessionID identifies the fetch session that produced the result.
	SessionID string

	// CelFaults are the CEL-class faults of the whole fleet.
	CelFaults []model.FaultRecord

	// AllFaults are the OBD-class faults plus every CEL fault not already among them.
	AllFaults []model.FaultRecord

	// Trips of the selected devices, grouped by device id.
	Trips map[string][]model.TripRecord
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper replaces the timer used for pacing and backoff.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// Orchestrator runs fetches against a RecordSource. At most one fetch is
// active; starting another cancels it.
type Orchestrator struct {
	src      core.RecordSource
	cfg      Config
	sleep    Sleeper
	sessions Tracker
	log      log.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(src core.RecordSource, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		src:   src,
		cfg:   cfg,
		sleep: Sleep,
		log:   log.WithName("fetch"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Session returns the latest fetch session, or nil.
func (o *Orchestrator) Session() *Session { return o.sessions.Current() }

// Cancel cancels the active fetch, if any.
func (o *Orchestrator) Cancel() { o.sessions.Cancel() }

// Fetch cancels any active fetch and retrieves the records of req. It returns
// ErrCancelled when the fetch is superseded or ctx is cancelled. An empty
// device selection returns an empty result without any call.
func (o *Orchestrator) Fetch(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	s := o.sessions.Begin(ctx)
	logger := o.log.WithValues("session", s.ID)
	start := time.Now()

	if progress == nil {
		progress = func(Phase, float64) {}
	}

	if len(req.DeviceIDs) == 0 {
		_ = s.finish(nil)
		observe("empty", start)
		return &Result{SessionID: s.ID, Trips: map[string][]model.TripRecord{}}, nil
	}

	logger.Info("Fetch started", "from", req.Range.From, "to", req.Range.To, "devices", len(req.DeviceIDs))

	res, err := o.run(s.Context(), logger, req, progress)
	if err = s.finish(err); err != nil {
		if errors.Is(err, ErrCancelled) {
			logger.Info("Fetch cancelled")
			observe("cancelled", start)
		} else {
			logger.Error(err, "Fetch failed")
			observe("failed", start)
		}
		return nil, err
	}

	logger.Info("Fetch finished", "celFaults", len(res.CelFaults), "allFaults", len(res.AllFaults),
		"devicesWithTrips", len(res.Trips), "elapsed", time.Since(start))
	observe("succeeded", start)
	res.SessionID = s.ID
	return res, nil
}

func observe(outcome string, start time.Time) {
	metrics.FetchTotal.WithLabelValues(outcome).Inc()
	metrics.FetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (o *Orchestrator) run(ctx context.Context, logger log.Logger, req Request, progress ProgressFunc) (*Result, error) {
	windows := Windows(req.Range.From, req.Range.To, o.cfg.WindowSize)

	var celFaults, obdFaults []model.FaultRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		celFaults, err = o.fetchCelFaults(gctx, logger, req)
		return err
	})
	g.Go(func() error {
		var err error
		obdFaults, err = o.fetchObdFaults(gctx, logger, windows, progress)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}

	trips, err := o.fetchTrips(ctx, logger, windows, req.DeviceIDs, progress)
	if err != nil {
		return nil, err
	}

	return &Result{
		CelFaults: celFaults,
		AllFaults: MergeFaults(obdFaults, celFaults),
		Trips:     trips,
	}, nil
}

func (o *Orchestrator) fetchCelFaults(ctx context.Context, logger log.Logger, req Request) ([]model.FaultRecord, error) {
	if len(req.CelDiagnosticIDs) == 0 {
		return nil, nil
	}

	queries := make([]core.FaultQuery, 0, len(req.CelDiagnosticIDs))
	for _, id := range req.CelDiagnosticIDs {
		queries = append(queries, core.FaultQuery{
			From:         req.Range.From,
			To:           req.Range.To,
			DiagnosticID: id,
			Limit:        o.cfg.ResultLimit,
		})
	}

	var batches [][]model.FaultRecord
	err := o.cfg.Retry.Do(ctx, o.sleep, func(ctx context.Context) error {
		var err error
		batches, err = o.src.FaultsBatch(ctx, queries)
		return err
	}, func(attempt int, delay time.Duration, err error) {
		metrics.BatchRetries.Inc()
		logger.Warn("Retrying CEL fault batch", "attempt", attempt, "delay", delay, "error", err.Error())
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("failed to fetch CEL faults: %w", err)
	}

	var out []model.FaultRecord
	for _, b := range batches {
		out = append(out, b...)
	}
	metrics.RecordsFetched.WithLabelValues("cel_faults").Add(float64(len(out)))
	return out, nil
}

// eachWindow calls fn for every window in order, pacing all but the first
// and checking for cancellation before and after every call.
func (o *Orchestrator) eachWindow(ctx context.Context, phase Phase, windows []Window, progress ProgressFunc,
	fn func(ctx context.Context, w Window) error) error {
	for i, w := range windows {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		if i > 0 {
			if err := o.sleep(ctx, o.cfg.Pacing); err != nil {
				return ErrCancelled
			}
		}
		if err := fn(ctx, w); err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return fmt.Errorf("failed to fetch %s window %d/%d: %w", phase, i+1, len(windows), err)
		}
		if ctx.Err() != nil {
			return ErrCancelled
		}
		metrics.WindowsFetched.WithLabelValues(string(phase)).Inc()
		progress(phase, float64(i+1)/float64(len(windows))*100)
	}
	return nil
}

func (o *Orchestrator) fetchObdFaults(ctx context.Context, logger log.Logger, windows []Window, progress ProgressFunc) ([]model.FaultRecord, error) {
	var out []model.FaultRecord
	err := o.eachWindow(ctx, PhaseFaults, windows, progress, func(ctx context.Context, w Window) error {
		faults, err := o.src.Faults(ctx, core.FaultQuery{
			From:           w.From,
			To:             w.To,
			DiagnosticType: core.DiagnosticTypeObdFault,
			Limit:          o.cfg.ResultLimit,
		})
		if err != nil {
			return err
		}
		logger.Debug("Fault window fetched", "from", w.From, "to", w.To, "records", len(faults))
		out = append(out, faults...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordsFetched.WithLabelValues("obd_faults").Add(float64(len(out)))
	return out, nil
}

func (o *Orchestrator) fetchTrips(ctx context.Context, logger log.Logger, windows []Window, deviceIDs []string,
	progress ProgressFunc) (map[string][]model.TripRecord, error) {
	selected := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		selected[id] = struct{}{}
	}

	out := map[string][]model.TripRecord{}
	total := 0
	err := o.eachWindow(ctx, PhaseTrips, windows, progress, func(ctx context.Context, w Window) error {
		trips, err := o.src.Trips(ctx, core.TripQuery{From: w.From, To: w.To, Limit: o.cfg.ResultLimit})
		if err != nil {
			return err
		}
		logger.Debug("Trip window fetched", "from", w.From, "to", w.To, "records", len(trips))
		for _, t := range trips {
			if _, ok := selected[t.DeviceID]; !ok {
				continue
			}
			out[t.DeviceID] = append(out[t.DeviceID], t)
			total++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordsFetched.WithLabelValues("trips").Add(float64(total))
	return out, nil
}

// MergeFaults appends to all every CEL fault whose id is not already
// present. CEL faults without an id are never appended.
func MergeFaults(all, cel []model.FaultRecord) []model.FaultRecord {
	seen := make(map[string]struct{}, len(all))
	for _, f := range all {
		if f.ID != "" {
			seen[f.ID] = struct{}{}
		}
	}

	out := make([]model.FaultRecord, len(all), len(all)+len(cel))
	copy(out, all)
	for _, f := range cel {
		if f.ID == "" {
			continue
		}
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}
