package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/internal/celdash/groups"
	"github.com/autopeer-io/celdash/internal/celdash/rows"
	"github.com/autopeer-io/celdash/pkg/log"
)

// Dashboard is the use case layer served by the API.
// In celdash, this is implemented by dashboard.Service.
type Dashboard interface {
	Initialized() bool
	Apply(ctx context.Context, req dashboard.Request) (*dashboard.Snapshot, error)
	Refresh(ctx context.Context) error
	Cancel()
	Snapshot() (*dashboard.Snapshot, error)
	Rebucket(g calendar.Granularity) ([]model.TrendPoint, error)
	Options() (groups.Options, error)
	Progress() dashboard.Progress
}

type handler struct {
	svc Dashboard
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, dashboard.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(err, "Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: r.Method + " not allowed on " + r.URL.Path})
}

func (h *handler) apply(w http.ResponseWriter, r *http.Request) {
	var req dashboard.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	snap, err := h.svc.Apply(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) cancel(w http.ResponseWriter, _ *http.Request) {
	h.svc.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withSnapshot runs fn on the current snapshot or writes the lookup error.
func (h *handler) withSnapshot(w http.ResponseWriter, fn func(*dashboard.Snapshot)) {
	snap, err := h.svc.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	fn(snap)
}

func (h *handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	h.withSnapshot(w, func(s *dashboard.Snapshot) { writeJSON(w, http.StatusOK, s) })
}

func (h *handler) trend(w http.ResponseWriter, r *http.Request) {
	var g calendar.Granularity
	if v := r.URL.Query().Get("granularity"); v != "" {
		var err error
		if g, err = calendar.ParseGranularity(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	points, err := h.svc.Rebucket(g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *handler) dtc(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.withSnapshot(w, func(s *dashboard.Snapshot) {
		writeJSON(w, http.StatusOK, rows.FilterDtc(s.Dtc, q.Get("state"), q.Get("q")))
	})
}

func (h *handler) units(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.withSnapshot(w, func(s *dashboard.Snapshot) {
		writeJSON(w, http.StatusOK, rows.FilterUnits(s.Units, q.Get("q")))
	})
}

func (h *handler) comm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.withSnapshot(w, func(s *dashboard.Snapshot) {
		writeJSON(w, http.StatusOK, rows.FilterComm(s.Comm, q.Get("status"), q.Get("q")))
	})
}

func (h *handler) kpi(w http.ResponseWriter, _ *http.Request) {
	h.withSnapshot(w, func(s *dashboard.Snapshot) { writeJSON(w, http.StatusOK, s.KPIs) })
}

func (h *handler) top10(w http.ResponseWriter, _ *http.Request) {
	h.withSnapshot(w, func(s *dashboard.Snapshot) { writeJSON(w, http.StatusOK, s.Top) })
}

func (h *handler) filters(w http.ResponseWriter, _ *http.Request) {
	opts, err := h.svc.Options()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (h *handler) progress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Progress())
}
