package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/internal/celdash/groups"
	"github.com/autopeer-io/celdash/pkg/options"
)

type fakeDashboard struct {
	initialized bool
	snap        *dashboard.Snapshot
	applyErr    error
	lastReq     dashboard.Request
	rebucketed  calendar.Granularity
	cancelled   bool
}

func (f *fakeDashboard) Initialized() bool { return f.initialized }

func (f *fakeDashboard) Apply(_ context.Context, req dashboard.Request) (*dashboard.Snapshot, error) {
	f.lastReq = req
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return f.snap, nil
}

func (f *fakeDashboard) Refresh(context.Context) error {
	if !f.initialized {
		return dashboard.ErrNotInitialized
	}
	return nil
}

func (f *fakeDashboard) Cancel() { f.cancelled = true }

func (f *fakeDashboard) Snapshot() (*dashboard.Snapshot, error) {
	if !f.initialized {
		return nil, dashboard.ErrNotInitialized
	}
	if f.snap == nil {
		return nil, dashboard.ErrNoSnapshot
	}
	return f.snap, nil
}

func (f *fakeDashboard) Rebucket(g calendar.Granularity) ([]model.TrendPoint, error) {
	f.rebucketed = g
	if f.snap == nil {
		return nil, dashboard.ErrNoSnapshot
	}
	return f.snap.Trend, nil
}

func (f *fakeDashboard) Options() (groups.Options, error) {
	return groups.Options{Years: []string{"2020"}}, nil
}

func (f *fakeDashboard) Progress() dashboard.Progress {
	return dashboard.Progress{State: fetch.StateFetching, Overall: 50}
}

func testSnapshot() *dashboard.Snapshot {
	return &dashboard.Snapshot{
		SessionID:   "s-1",
		Granularity: calendar.Day,
		DeviceCount: 2,
		Trend:       []model.TrendPoint{{Label: "2024-05-04", Value: 50, Driven: 2, CelDriven: 1}},
		KPIs:        model.KPIs{Period: 25, Current: 25, ActiveCel: 1},
		Dtc: []model.DtcRow{
			{Code: "P0300", Unit: "Truck 1", Description: "Engine misfire", State: "Active"},
			{Code: "1", Unit: "Truck 2", Description: "Vehicle warning light is on", State: "Cleared"},
		},
		Units: []model.UnitRow{{ID: "d1", Name: "Truck 1", Make: "Ford"}, {ID: "d2", Name: "Truck 2", Make: "Volvo"}},
		Comm: []model.CommRow{
			{ID: "d1", Name: "Truck 1", Status: model.StatusReporting},
			{ID: "d2", Name: "Truck 2", Status: model.StatusNotReporting},
		},
	}
}

func newTestHandler(d *fakeDashboard) http.Handler {
	return NewHandler(options.NewHttpOptions(), d)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProbes(t *testing.T) {
	d := &fakeDashboard{}
	h := newTestHandler(d)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/readyz", "").Code)

	d.initialized = true
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/readyz", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApply(t *testing.T) {
	d := &fakeDashboard{initialized: true, snap: testSnapshot()}
	h := newTestHandler(d)

	rec := do(t, h, http.MethodPost, "/api/v1/apply", `{"preset":"custom","from":"2024-05-01","to":"2024-05-07","filter":{"region":"r1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "custom", d.lastReq.Preset)
	assert.Equal(t, "r1", d.lastReq.Filter.RegionID)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "s-1", got["session"])

	rec = do(t, h, http.MethodPost, "/api/v1/apply", "")
	assert.Equal(t, http.StatusOK, rec.Code, "an empty body applies the default preset")

	rec = do(t, h, http.MethodPost, "/api/v1/apply", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/apply", "").Code)
}

func TestWrongMethod(t *testing.T) {
	h := newTestHandler(&fakeDashboard{initialized: true, snap: testSnapshot()})

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/apply"},
		{http.MethodGet, "/api/v1/refresh"},
		{http.MethodGet, "/api/v1/cancel"},
		{http.MethodPost, "/api/v1/snapshot"},
		{http.MethodPost, "/api/v1/progress"},
		{http.MethodDelete, "/api/v1/dtc"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Contains(t, rec.Body.String(), "not allowed")
		})
	}

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/nope", "").Code)
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fetch.ErrCancelled, http.StatusConflict},
		{dashboard.ErrNotInitialized, http.StatusServiceUnavailable},
		{calendar.ErrInvalidRange, http.StatusBadRequest},
		{errors.New("upstream exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newTestHandler(&fakeDashboard{initialized: true, applyErr: tt.err})
			rec := do(t, h, http.MethodPost, "/api/v1/apply", `{"preset":"7days"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}

func TestTables(t *testing.T) {
	h := newTestHandler(&fakeDashboard{initialized: true, snap: testSnapshot()})

	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/dtc", 2},
		{"/api/v1/dtc?state=Active", 1},
		{"/api/v1/dtc?q=warning", 1},
		{"/api/v1/units?q=volvo", 1},
		{"/api/v1/comm", 2},
		{"/api/v1/comm?status=not-reporting", 1},
		{"/api/v1/comm?status=reporting&q=truck", 1},
		{"/api/v1/comm?q=nobody", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSnapshotViews(t *testing.T) {
	d := &fakeDashboard{initialized: true}
	h := newTestHandler(d)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/kpi", "").Code)

	d.snap = testSnapshot()

	rec := do(t, h, http.MethodGet, "/api/v1/kpi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":25`)
	assert.Contains(t, rec.Body.String(), `"priorDiff":null`)

	rec = do(t, h, http.MethodGet, "/api/v1/trend?granularity=week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calendar.Week, d.rebucketed)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/trend?granularity=year", "").Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/top10", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/snapshot", "").Code)
	assert.Contains(t, do(t, h, http.MethodGet, "/api/v1/filters", "").Body.String(), `"years":["2020"]`)
	assert.Contains(t, do(t, h, http.MethodGet, "/api/v1/progress", "").Body.String(), `"state":"fetching"`)
}

func TestRefreshAndCancel(t *testing.T) {
	d := &fakeDashboard{}
	h := newTestHandler(d)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/v1/refresh", "").Code)
	d.initialized = true
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/api/v1/refresh", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/api/v1/cancel", "").Code)
	assert.True(t, d.cancelled)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(&fakeDashboard{initialized: true})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/progress", nil)
	req.Header.Set("Origin", "https://my.geotab.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "ngrok-skip-browser-warning")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
