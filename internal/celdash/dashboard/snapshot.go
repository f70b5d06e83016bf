package dashboard

import (
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
)

// Snapshot is the immutable result of one successful Apply.
type Snapshot struct {
	SessionID   string               `json:"session"`
	Range       model.DateRange      `json:"range"`
	Preset      string               `json:"preset"`
	Filter      model.DeviceFilter   `json:"filter"`
	Granularity calendar.Granularity `json:"granularity"`
	DeviceCount int                  `json:"devices"`

	Trend []model.TrendPoint `json:"trend"`
	KPIs  model.KPIs         `json:"kpi"`
	Top   model.TopLists     `json:"top10"`

	Dtc   []model.DtcRow  `json:"dtc"`
	Units []model.UnitRow `json:"units"`
	Comm  []model.CommRow `json:"comm"`

	GeneratedAt time.Time `json:"generatedAt"`

	// Inputs kept for rebucketing.
	deviceIDs []string
	celFaults []model.FaultRecord
	trips     map[string][]model.TripRecord
}

// Progress reports how far the latest fetch has come.
type Progress struct {
	Session string      `json:"session,omitempty"`
	State   fetch.State `json:"state"`
	Faults  float64     `json:"faults"`
	Trips   float64     `json:"trips"`
	Overall float64     `json:"overall"`
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fleet == nil {
		return nil, ErrNotInitialized
	}
	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return s.snapshot, nil
}

// Progress returns the progress of the latest fetch.
func (s *Service) Progress() Progress {
	s.progMu.Lock()
	p := s.progress
	s.progMu.Unlock()

	if sess := s.orch.Session(); sess != nil {
		p.Session = sess.ID
		p.State = sess.State()
	}
	return p
}

// resetProgress starts reporting for the Apply numbered seq. Updates from
// earlier Applies are dropped from then on.
func (s *Service) resetProgress(seq uint64) {
	s.progMu.Lock()
	s.progSeq = seq
	s.progress = Progress{State: fetch.StateFetching}
	s.progMu.Unlock()
}

func (s *Service) onProgress(seq uint64, phase fetch.Phase, pct float64) {
	s.progMu.Lock()
	defer s.progMu.Unlock()
	if seq != s.progSeq {
		return
	}

	switch phase {
	case fetch.PhaseFaults:
		s.progress.Faults = pct
	case fetch.PhaseTrips:
		s.progress.Trips = pct
	}
	if overall := fetch.Overall(phase, pct); overall > s.progress.Overall {
		s.progress.Overall = overall
	}
}

// settleProgress drops the fetching marker; the session state takes over.
func (s *Service) settleProgress(seq uint64) {
	s.progMu.Lock()
	if seq == s.progSeq {
		s.progress.State = fetch.StateIdle
	}
	s.progMu.Unlock()
}
