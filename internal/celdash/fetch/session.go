package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/celdash/internal/pkg/util/fsm"
	"github.com/autopeer-io/celdash/pkg/log"
)

// ErrCancelled is returned by a fetch that was superseded or cancelled.
// It is not a failure.
var ErrCancelled = errors.New("fetch cancelled")

// State is the lifecycle phase of a fetch session.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

const (
	EventStart   = "event_start"
	EventSucceed = "event_succeed"
	EventFail    = "event_fail"
	EventCancel  = "event_cancel"
)

// Session is one fetch run. Its context is cancelled when the session is
// superseded, so every suspension point can check it.
type Session struct {
	ID        string
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	fsm    *fsm.FSM

	mu  sync.Mutex
	err error
}

func newSession(parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	events := fsm.Events{
		{Name: EventStart, Src: []string{string(StateIdle)}, Dst: string(StateFetching)},
		{Name: EventSucceed, Src: []string{string(StateFetching)}, Dst: string(StateSucceeded)},
		{Name: EventFail, Src: []string{string(StateFetching)}, Dst: string(StateFailed)},
		{Name: EventCancel, Src: []string{string(StateIdle), string(StateFetching)}, Dst: string(StateCancelled)},
	}
	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(s.actionEnterState),
	}
	s.fsm = fsm.NewFSM(string(StateIdle), events, callbacks)
	return s
}

func (s *Session) actionEnterState(_ context.Context, e *fsm.Event) error {
	log.Debug("Fetch session transition", "session", s.ID, "from", e.Src, "to", e.Dst)
	return nil
}

// Context returns the session context.
func (s *Session) Context() context.Context { return s.ctx }

// Valid reports whether the session is still current and not cancelled.
func (s *Session) Valid() bool { return s.ctx.Err() == nil }

// State returns the current lifecycle phase.
func (s *Session) State() State { return State(s.fsm.Current()) }

// Err returns the terminal error of a failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) start() {
	_ = fsmutil.Fire(s.ctx, s.fsm, EventStart)
}

// finish moves the session to its terminal state for err and returns the
// error the caller should see.
func (s *Session) finish(err error) error {
	defer s.cancel()

	// Transitions run on a background context since the session context may be done.
	ctx := context.Background()
	switch {
	case err == nil && s.Valid():
		_ = fsmutil.Fire(ctx, s.fsm, EventSucceed)
		return nil
	case !s.Valid() || errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled):
		_ = fsmutil.Fire(ctx, s.fsm, EventCancel)
		return ErrCancelled
	default:
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		_ = fsmutil.Fire(ctx, s.fsm, EventFail)
		return err
	}
}

// Tracker allows at most one active session. Beginning a new session
// cancels the previous one.
type Tracker struct {
	mu      sync.Mutex
	current *Session
}

// Begin cancels the active session, if any, and starts a new one.
func (t *Tracker) Begin(parent context.Context) *Session {
	s := newSession(parent)

	t.mu.Lock()
	prev := t.current
	t.current = s
	t.mu.Unlock()

	if prev != nil && prev.Valid() {
		log.Info("Cancelling superseded fetch session", "session", prev.ID, "next", s.ID)
		prev.cancel()
	}
	s.start()
	return s
}

// Current returns the latest session, or nil when none was started.
func (t *Tracker) Current() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Cancel cancels the active session, if any.
func (t *Tracker) Cancel() {
	if s := t.Current(); s != nil {
		s.cancel()
	}
}
