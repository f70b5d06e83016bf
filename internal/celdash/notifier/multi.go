// Package notifier publishes fetch summaries to downstream consumers.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/pkg/metrics"
	"github.com/autopeer-io/celdash/pkg/log"
)

var _ core.SummaryNotifier = (*Multi)(nil)

type sink struct {
	name string
	n    core.SummaryNotifier
}

// Multi fans a summary out to every configured sink. A failing sink does
// not prevent delivery to the others.
type Multi struct {
	sinks []sink
}

// NewMulti returns an empty fan-out; Notify on it is a no-op.
func NewMulti() *Multi {
	return &Multi{}
}

// Add registers a named sink.
func (m *Multi) Add(name string, n core.SummaryNotifier) *Multi {
	m.sinks = append(m.sinks, sink{name: name, n: n})
	return m
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Notify(ctx context.Context, s *core.Summary) error {
	var errs []error
	for _, sk := range m.sinks {
		if err := sk.n.Notify(ctx, s); err != nil {
			metrics.SummaryPublishTotal.WithLabelValues(sk.name, "failed").Inc()
			log.Error(err, "Failed to publish fetch summary", "sink", sk.name, "session", s.Session)
			errs = append(errs, fmt.Errorf("%s: %w", sk.name, err))
			continue
		}
		metrics.SummaryPublishTotal.WithLabelValues(sk.name, "success").Inc()
		log.Debug("Fetch summary published", "sink", sk.name, "session", s.Session)
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, sk := range m.sinks {
		if err := sk.n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sk.name, err))
		}
	}
	return errors.Join(errs...)
}
