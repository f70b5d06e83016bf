// Package dashboard holds the explicit state of one fleet dashboard: the
// reference dictionaries, the device context and the current snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/enrich"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/internal/celdash/groups"
	"github.com/autopeer-io/celdash/internal/celdash/refdata"
	"github.com/autopeer-io/celdash/internal/celdash/rows"
	"github.com/autopeer-io/celdash/pkg/log"
)

var (
	// ErrNotInitialized is returned before Initialize has succeeded.
	ErrNotInitialized = errors.New("dashboard not initialized")

	// ErrNoSnapshot is returned before the first successful Apply.
	ErrNoSnapshot = errors.New("no data loaded")
)

// VinDecoder fills device attributes from VINs.
// In celdash, this is implemented by vin.Decoder.
type VinDecoder interface {
	Decode(ctx context.Context, vins []string) (map[string]model.DeviceInfo, error)
}

// Config holds the dashboard settings.
type Config struct {
	// Database names the fleet database in published summaries.
	Database string

	FoundationLimit int
	ReferenceLimit  int

	// GroupFilter lists hierarchy root group ids. Empty uses the company group.
	GroupFilter []string

	NotReportingDays int

	Calendar calendar.Calendar
	Fetch    fetch.Config
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes a summary after every successful Apply.
func WithNotifier(n core.SummaryNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithVinDecoder backfills missing device attributes from VINs.
func WithVinDecoder(d VinDecoder) Option {
	return func(s *Service) { s.vin = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFetchOptions passes options to the fetch orchestrator.
func WithFetchOptions(opts ...fetch.Option) Option {
	return func(s *Service) { s.fetchOpts = append(s.fetchOpts, opts...) }
}

// fleetState is replaced wholesale on Initialize and Refresh, never mutated.
type fleetState struct {
	devices    []model.Device
	groups     []model.Group
	hierarchy  groups.Hierarchy
	placements map[string]model.Placement
	info       map[string]model.DeviceInfo
	statuses   map[string]model.DeviceStatus
}

func (f *fleetState) rows() rows.Fleet {
	return rows.Fleet{All: f.devices, Placements: f.placements, Info: f.info, Statuses: f.statuses}
}

// Service is the dashboard use case layer.
type Service struct {
	cfg       Config
	src       core.Source
	ref       *refdata.Cache
	orch      *fetch.Orchestrator
	builder   *rows.Builder
	notifier  core.SummaryNotifier
	vin       VinDecoder
	now       func() time.Time
	fetchOpts []fetch.Option

	mu       sync.RWMutex
	fleet    *fleetState
	snapshot *Snapshot
	applySeq uint64

	progMu   sync.Mutex
	progSeq  uint64
	progress Progress
}

// New creates a Service reading from src.
func New(src core.Source, cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		src: src,
		ref: refdata.NewCache(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.orch = fetch.NewOrchestrator(src, cfg.Fetch, s.fetchOpts...)
	s.builder = rows.NewBuilder(enrich.New(s.ref, nil), s.ref, cfg.NotReportingDays)
	s.progress = Progress{State: fetch.StateIdle}
	return s
}

// Initialize loads devices, groups and statuses concurrently along with the
// reference dictionaries, then builds the hierarchy and device context.
func (s *Service) Initialize(ctx context.Context) error {
	var (
		devices  []model.Device
		gs       []model.Group
		statuses []model.DeviceStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if devices, err = s.src.Devices(gctx, s.cfg.FoundationLimit); err != nil {
			return fmt.Errorf("failed to load devices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if gs, err = s.src.Groups(gctx, s.cfg.FoundationLimit); err != nil {
			return fmt.Errorf("failed to load groups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if statuses, err = s.src.DeviceStatuses(gctx, s.cfg.FoundationLimit); err != nil {
			return fmt.Errorf("failed to load device statuses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.ref.Load(gctx, s.src, s.cfg.ReferenceLimit)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fleet := s.buildFleet(ctx, devices, gs, statuses)

	s.mu.Lock()
	s.fleet = fleet
	s.mu.Unlock()

	log.Info("Dashboard initialized", "devices", len(devices), "groups", len(gs),
		"regions", len(fleet.hierarchy.Regions), "celDiagnostics", len(s.ref.CelDiagnosticIDs()))
	return nil
}

// Refresh reloads devices and statuses and rebuilds the device context.
// The group tree and the current snapshot are kept.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	cur := s.fleet
	s.mu.RUnlock()
	if cur == nil {
		return ErrNotInitialized
	}

	var (
		devices  []model.Device
		statuses []model.DeviceStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if devices, err = s.src.Devices(gctx, s.cfg.FoundationLimit); err != nil {
			return fmt.Errorf("failed to load devices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if statuses, err = s.src.DeviceStatuses(gctx, s.cfg.FoundationLimit); err != nil {
			return fmt.Errorf("failed to load device statuses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fleet := s.buildFleet(ctx, devices, cur.groups, statuses)

	s.mu.Lock()
	s.fleet = fleet
	s.mu.Unlock()

	log.Info("Dashboard refreshed", "devices", len(devices))
	return nil
}

func (s *Service) buildFleet(ctx context.Context, devices []model.Device, gs []model.Group,
	statuses []model.DeviceStatus) *fleetState {
	h := groups.BuildHierarchy(gs, s.cfg.GroupFilter)
	f := &fleetState{
		devices:    devices,
		groups:     gs,
		hierarchy:  h,
		placements: h.Placements(devices),
		info:       groups.InfoMap(devices),
		statuses:   lo.Associate(statuses, func(st model.DeviceStatus) (string, model.DeviceStatus) { return st.DeviceID, st }),
	}
	s.backfillVins(ctx, f)
	return f
}

func (s *Service) backfillVins(ctx context.Context, f *fleetState) {
	if s.vin == nil {
		return
	}

	incomplete := lo.Filter(f.devices, func(d model.Device, _ int) bool {
		i := f.info[d.ID]
		return d.VIN != "" && (i.Year == model.Placeholder || i.Make == model.Placeholder ||
			i.VType == model.Placeholder || i.Engine == model.Placeholder)
	})
	if len(incomplete) == 0 {
		return
	}

	decoded, err := s.vin.Decode(ctx, lo.Map(incomplete, func(d model.Device, _ int) string { return d.VIN }))
	if err != nil {
		log.Warn("VIN decoding failed, device attributes stay incomplete", "error", err.Error(), "decoded", len(decoded))
	}
	for _, d := range incomplete {
		if v, ok := decoded[normalizeVin(d.VIN)]; ok {
			f.info[d.ID] = groups.Backfill(f.info[d.ID], v)
		}
	}
}

// Options returns the values offered by the device filters.
func (s *Service) Options() (groups.Options, error) {
	s.mu.RLock()
	f := s.fleet
	s.mu.RUnlock()
	if f == nil {
		return groups.Options{}, ErrNotInitialized
	}
	return groups.BuildOptions(f.hierarchy, f.devices, f.info), nil
}

// Initialized reports whether Initialize has succeeded.
func (s *Service) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fleet != nil
}

// Cancel cancels the running fetch, if any.
func (s *Service) Cancel() {
	s.orch.Cancel()
}

// Close releases the notifier.
func (s *Service) Close() error {
	s.orch.Cancel()
	if s.notifier != nil {
		return s.notifier.Close()
	}
	return nil
}
