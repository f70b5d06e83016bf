package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
)

func day(d, h int) time.Time {
	return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC)
}

type fakeSource struct {
	mu sync.Mutex

	devices  []model.Device
	groups   []model.Group
	statuses []model.DeviceStatus
	diags    []model.Diagnostic

	cel   []model.FaultRecord
	obd   []model.FaultRecord
	trips []model.TripRecord

	recordCalls int
	tripErr     error

	// tripGate, when set, holds every Trips call until closed. tripEntered
	// is signalled on the first held call.
	tripGate    chan struct{}
	tripEntered chan struct{}
}

func (f *fakeSource) Devices(context.Context, int) ([]model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Device(nil), f.devices...), nil
}

func (f *fakeSource) Groups(context.Context, int) ([]model.Group, error) { return f.groups, nil }

func (f *fakeSource) DeviceStatuses(context.Context, int) ([]model.DeviceStatus, error) {
	return f.statuses, nil
}

func (f *fakeSource) Diagnostics(context.Context, int) ([]model.Diagnostic, error) { return f.diags, nil }

func (f *fakeSource) FailureModes(context.Context, int) ([]model.FailureMode, error) { return nil, nil }

func inWindow(t, from, to time.Time) bool { return !t.Before(from) && t.Before(to) }

func (f *fakeSource) Faults(_ context.Context, q core.FaultQuery) ([]model.FaultRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	var out []model.FaultRecord
	for _, r := range f.obd {
		if inWindow(r.DateTime, q.From, q.To) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) FaultsBatch(_ context.Context, qs []core.FaultQuery) ([][]model.FaultRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	out := make([][]model.FaultRecord, len(qs))
	for i, q := range qs {
		for _, r := range f.cel {
			if r.DiagnosticID() == q.DiagnosticID && inWindow(r.DateTime, q.From, q.To) {
				out[i] = append(out[i], r)
			}
		}
	}
	return out, nil
}

func (f *fakeSource) Trips(_ context.Context, q core.TripQuery) ([]model.TripRecord, error) {
	if f.tripGate != nil {
		select {
		case f.tripEntered <- struct{}{}:
		default:
		}
		<-f.tripGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	if f.tripErr != nil {
		return nil, f.tripErr
	}
	var out []model.TripRecord
	for _, t := range f.trips {
		if inWindow(t.Start, q.From, q.To) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordCalls
}

func newFixture() *fakeSource {
	celDiag := &model.Diagnostic{ID: "cel1"}
	return &fakeSource{
		devices: []model.Device{
			{ID: "d1", Name: "Truck 1", GroupIDs: []string{"b1"}, Year: "2020", Make: "Ford"},
			{ID: "d2", Name: "Truck 2", GroupIDs: []string{"r2"}, Year: "2018", Make: "Volvo"},
			{ID: "d3", Name: "Van 3", GroupIDs: []string{"b1"}, VIN: "1abc"},
		},
		groups: []model.Group{
			{ID: "GroupCompanyId", Name: "CompanyGroup"},
			{ID: "r1", Name: "North", ParentID: "GroupCompanyId"},
			{ID: "r2", Name: "South", ParentID: "GroupCompanyId"},
			{ID: "b1", Name: "Oslo", ParentID: "r1"},
		},
		statuses: []model.DeviceStatus{
			{DeviceID: "d1", LastReported: day(10, 6), IsDriving: true},
			{DeviceID: "d2", LastReported: day(1, 6)},
		},
		diags: []model.Diagnostic{
			{ID: "cel1", Name: "Vehicle warning light is on", Code: "1"},
			{ID: "obd1", Name: "Engine misfire", Code: "P0300"},
		},
		cel: []model.FaultRecord{
			{ID: "c1", DeviceID: "d1", Diagnostic: celDiag, DateTime: day(4, 9)},
		},
		obd: []model.FaultRecord{
			{ID: "o1", DeviceID: "d2", Diagnostic: &model.Diagnostic{ID: "obd1"}, DateTime: day(6, 9)},
		},
		trips: []model.TripRecord{
			{DeviceID: "d1", Start: day(4, 8), Stop: day(4, 10)},
			{DeviceID: "d1", Start: day(5, 8), Stop: day(5, 10)},
			{DeviceID: "d2", Start: day(4, 12), Stop: day(4, 13)},
		},
	}
}

type stubDecoder struct {
	vins []string
}

func (d *stubDecoder) Decode(_ context.Context, vins []string) (map[string]model.DeviceInfo, error) {
	d.vins = vins
	return map[string]model.DeviceInfo{"1ABC": {Year: "2021", Make: "Ram", VType: "Van", Engine: "3.6L"}}, nil
}

type recordingNotifier struct {
	summaries []*core.Summary
}

func (n *recordingNotifier) Notify(_ context.Context, s *core.Summary) error {
	n.summaries = append(n.summaries, s)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func newService(src core.Source, opts ...Option) *Service {
	cfg := Config{
		Database:        "acme",
		FoundationLimit: 5000,
		ReferenceLimit:  50000,
		Calendar:        calendar.New(time.UTC),
		Fetch: fetch.Config{
			WindowSize:  7 * 24 * time.Hour,
			ResultLimit: 50000,
			Retry:       fetch.RetryPolicy{MaxRetries: 1, Base: time.Millisecond, Cap: time.Millisecond},
		},
	}
	opts = append([]Option{WithClock(func() time.Time { return day(10, 12) })}, opts...)
	return New(src, cfg, opts...)
}

func TestService_RequiresInitialize(t *testing.T) {
	s := newService(newFixture())

	_, err := s.Apply(context.Background(), Request{Preset: calendar.Preset7Days})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.Snapshot()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNotInitialized)
	assert.False(t, s.Initialized())
}

func TestService_Apply(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newService(newFixture(), WithNotifier(notifier))
	require.NoError(t, s.Initialize(context.Background()))

	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap, err := s.Apply(context.Background(), Request{Preset: calendar.Preset7Days})
	require.NoError(t, err)

	assert.Equal(t, 3, snap.DeviceCount)
	assert.Equal(t, calendar.Day, snap.Granularity)
	assert.True(t, day(3, 0).Equal(snap.Range.From))

	// d1 drove two days with CEL on one; d2 drove without CEL; d3 never drove.
	assert.InDelta(t, 25.0, snap.KPIs.Period, 1e-9)
	assert.Equal(t, 1, snap.KPIs.ActiveCel)

	require.Len(t, snap.Trend, 2)
	assert.Equal(t, "2024-05-04", snap.Trend[0].Label)
	assert.InDelta(t, 50.0, snap.Trend[0].Value, 1e-9)
	require.NotNil(t, snap.KPIs.PriorDiff)
	assert.InDelta(t, -50.0, *snap.KPIs.PriorDiff, 1e-9)

	assert.Len(t, snap.Dtc, 2)
	assert.Len(t, snap.Units, 3)
	require.Len(t, snap.Comm, 3)
	assert.Equal(t, model.StatusNotReporting, snap.Comm[1].Status)

	require.NotEmpty(t, snap.Top.HighestCel)
	assert.Equal(t, "Truck 1", snap.Top.HighestCel[0].Label)

	got, err := s.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, got)

	p := s.Progress()
	assert.Equal(t, fetch.StateSucceeded, p.State)
	assert.Equal(t, snap.SessionID, p.Session)
	assert.InDelta(t, 100.0, p.Overall, 1e-9)

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, "acme", notifier.summaries[0].Database)
	assert.Equal(t, 3, notifier.summaries[0].Devices)
	assert.Equal(t, snap.SessionID, notifier.summaries[0].Session)
}

func TestService_ApplyFilters(t *testing.T) {
	tests := []struct {
		name    string
		filter  model.DeviceFilter
		devices int
		period  float64
	}{
		{name: "vehicle", filter: model.DeviceFilter{VehicleID: "d1"}, devices: 1, period: 50},
		{name: "region", filter: model.DeviceFilter{RegionID: "r2"}, devices: 1, period: 0},
		{name: "branch", filter: model.DeviceFilter{RegionID: "r1", BranchID: "b1"}, devices: 2, period: 50},
		{name: "make", filter: model.DeviceFilter{Make: "Ford"}, devices: 1, period: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(newFixture())
			require.NoError(t, s.Initialize(context.Background()))

			snap, err := s.Apply(context.Background(), Request{Preset: calendar.Preset7Days, Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.devices, snap.DeviceCount)
			assert.InDelta(t, tt.period, snap.KPIs.Period, 1e-9)
		})
	}
}

func TestService_EmptySelectionMakesNoCalls(t *testing.T) {
	src := newFixture()
	s := newService(src)
	require.NoError(t, s.Initialize(context.Background()))

	snap, err := s.Apply(context.Background(), Request{Preset: calendar.Preset30Days, Filter: model.DeviceFilter{Year: "1999"}})
	require.NoError(t, err)

	assert.Zero(t, src.calls())
	assert.Zero(t, snap.DeviceCount)
	assert.Empty(t, snap.Trend)
	assert.Empty(t, snap.Dtc)
	assert.Zero(t, snap.KPIs.Period)
	assert.NotNil(t, snap.Top.HighestCel)
}

func TestService_FailedApplyKeepsSnapshot(t *testing.T) {
	src := newFixture()
	s := newService(src)
	require.NoError(t, s.Initialize(context.Background()))

	first, err := s.Apply(context.Background(), Request{Preset: calendar.Preset7Days})
	require.NoError(t, err)

	src.mu.Lock()
	src.tripErr = errors.New("rate limited")
	src.mu.Unlock()

	_, err = s.Apply(context.Background(), Request{Preset: calendar.Preset30Days})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	got, err := s.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, fetch.StateFailed, s.Progress().State)
}

func TestService_InvalidRange(t *testing.T) {
	s := newService(newFixture())
	require.NoError(t, s.Initialize(context.Background()))

	_, err := s.Apply(context.Background(), Request{Preset: calendar.PresetCustom, From: "2024-05-09", To: "2024-05-01"})
	assert.Error(t, err)
}

func TestService_Rebucket(t *testing.T) {
	src := newFixture()
	s := newService(src)
	require.NoError(t, s.Initialize(context.Background()))

	_, err := s.Rebucket(calendar.Week)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = s.Apply(context.Background(), Request{Preset: calendar.Preset7Days})
	require.NoError(t, err)
	calls := src.calls()

	points, err := s.Rebucket(calendar.Week)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-04-29", points[0].Label)
	assert.Equal(t, 3, points[0].Driven)
	assert.Equal(t, 1, points[0].CelDriven)
	assert.Equal(t, calls, src.calls(), "rebucketing never fetches")

	snap, _ := s.Snapshot()
	assert.Equal(t, calendar.Day, snap.Granularity)
}

func TestService_VinBackfillAndOptions(t *testing.T) {
	dec := &stubDecoder{}
	s := newService(newFixture(), WithVinDecoder(dec))
	require.NoError(t, s.Initialize(context.Background()))

	assert.Equal(t, []string{"1abc"}, dec.vins)

	opts, err := s.Options()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ford", "Ram", "Volvo"}, opts.Makes)
	assert.Equal(t, []string{"2018", "2020", "2021"}, opts.Years)
	require.Len(t, opts.Regions, 2)
	assert.Equal(t, "North", opts.Regions[0].Name)
	assert.Len(t, opts.Branches["r1"], 1)
	assert.Len(t, opts.Vehicles, 3)
}

func TestService_Refresh(t *testing.T) {
	src := newFixture()
	s := newService(src)
	require.NoError(t, s.Initialize(context.Background()))

	src.mu.Lock()
	src.devices = append(src.devices, model.Device{ID: "d4", Name: "Truck 4", GroupIDs: []string{"r2"}})
	src.mu.Unlock()

	require.NoError(t, s.Refresh(context.Background()))

	opts, err := s.Options()
	require.NoError(t, err)
	assert.Len(t, opts.Vehicles, 4)
}

func TestService_RejectedApplyKeepsInflightFetch(t *testing.T) {
	src := newFixture()
	src.tripGate = make(chan struct{})
	src.tripEntered = make(chan struct{}, 1)
	s := newService(src)
	require.NoError(t, s.Initialize(context.Background()))

	type result struct {
		snap *Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := s.Apply(context.Background(), Request{Preset: calendar.Preset7Days})
		done <- result{snap, err}
	}()

	select {
	case <-src.tripEntered:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never reached the trips phase")
	}

	tests := []Request{
		{Preset: calendar.PresetCustom, From: "not a date"},
		{Preset: calendar.PresetCustom, From: "2024-05-09", To: "2024-05-01"},
	}
	for _, req := range tests {
		_, err := s.Apply(context.Background(), req)
		assert.ErrorIs(t, err, calendar.ErrInvalidRange)
	}
	close(src.tripGate)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("apply did not return")
	}
	require.NoError(t, res.err)
	require.NotNil(t, res.snap)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Same(t, res.snap, snap)
	assert.Equal(t, fetch.StateSucceeded, s.Progress().State)
}

func TestService_StaleProgressIsDropped(t *testing.T) {
	s := newService(newFixture())

	s.resetProgress(1)
	s.onProgress(1, fetch.PhaseFaults, 100)
	s.onProgress(1, fetch.PhaseTrips, 40)
	assert.InDelta(t, 70, s.Progress().Overall, 0.001)

	s.resetProgress(2)
	s.onProgress(1, fetch.PhaseTrips, 80)
	s.settleProgress(1)

	p := s.Progress()
	assert.Zero(t, p.Overall)
	assert.Zero(t, p.Trips)
	assert.Equal(t, fetch.StateFetching, p.State)

	s.onProgress(2, fetch.PhaseFaults, 50)
	assert.InDelta(t, 25, s.Progress().Overall, 0.001)
}
