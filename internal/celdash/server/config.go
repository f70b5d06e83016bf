package server

import (
	"time"

	"github.com/autopeer-io/celdash/pkg/options"
)

type Config struct {
	HttpOptions *options.HttpOptions

	// DefaultPreset is applied once the dashboard is initialized.
	DefaultPreset string

	// InitRetry is the wait between failed initialization attempts.
	InitRetry time.Duration
}
