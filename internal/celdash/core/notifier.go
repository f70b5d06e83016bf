package core

import (
	"context"
	"time"
)

// Summary is published after every successful apply.
type Summary struct {
	Session     string    `json:"session"`
	Database    string    `json:"database"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Granularity string    `json:"granularity"`
	Devices     int       `json:"devices"`
	FleetCelPct float64   `json:"fleetCelPct"`
	ActiveCel   int       `json:"activeCel"`
	Faults      int       `json:"faults"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// SummaryNotifier publishes fetch summaries to downstream consumers.
// In celdash, this is implemented by the MQTT and Kafka adapters.
type SummaryNotifier interface {
	Notify(ctx context.Context, s *Summary) error
	Close() error
}
