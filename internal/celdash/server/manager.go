package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/server/http"
	"github.com/autopeer-io/celdash/pkg/log"
)

// Server defines the common interface for all sub-servers.
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all servers.
type Manager struct {
	servers []Server
}

// NewManager creates the HTTP server and the dashboard loader.
func NewManager(cfg *Config, svc *dashboard.Service) *Manager {
	return &Manager{
		servers: []Server{
			http.NewServer(cfg.HttpOptions, svc),
			NewLoader(svc, cfg.DefaultPreset, cfg.InitRetry),
		},
	}
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...")
	return g.Wait()
}
