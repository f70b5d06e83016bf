package server

import (
	"context"
	"errors"
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/pkg/log"
)

const defaultInitRetry = 30 * time.Second

// Initializer is the part of dashboard.Service the loader drives.
type Initializer interface {
	Initialize(ctx context.Context) error
	Apply(ctx context.Context, req dashboard.Request) (*dashboard.Snapshot, error)
}

// Loader initializes the dashboard, retrying until it succeeds, and then
// applies the default preset once.
type Loader struct {
	svc    Initializer
	preset string
	retry  time.Duration
	sleep  fetch.Sleeper
}

// NewLoader creates a Loader. An empty preset skips the initial apply.
func NewLoader(svc Initializer, preset string, retry time.Duration) *Loader {
	if retry <= 0 {
		retry = defaultInitRetry
	}
	return &Loader{svc: svc, preset: preset, retry: retry, sleep: fetch.Sleep}
}

// Start returns once the initial load is done or ctx is cancelled.
func (l *Loader) Start(ctx context.Context) error {
	for {
		err := l.svc.Initialize(ctx)
		if err == nil {
			break
		}
		log.Error(err, "Dashboard initialization failed, retrying", "in", l.retry)
		if err := l.sleep(ctx, l.retry); err != nil {
			return nil
		}
	}

	if l.preset == "" {
		return nil
	}

	snap, err := l.svc.Apply(ctx, dashboard.Request{Preset: l.preset})
	switch {
	case errors.Is(err, fetch.ErrCancelled):
		log.Info("Initial load superseded", "preset", l.preset)
	case err != nil:
		log.Error(err, "Initial load failed", "preset", l.preset)
	default:
		log.Info("Initial load finished", "preset", l.preset, "devices", snap.DeviceCount, "fleetCelPct", snap.KPIs.Period)
	}
	return nil
}
