// Package celdash assembles the check engine light dashboard from its
// adapters and servers.
package celdash

import (
	"context"

	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/server"
	"github.com/autopeer-io/celdash/pkg/log"
)

// Server is the main application struct of celdash.
type Server struct {
	serverManager *server.Manager
	dashboard     *dashboard.Service
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info("Starting celdash...")

	err := s.serverManager.Start(ctx)

	if cerr := s.dashboard.Close(); cerr != nil {
		log.Error(cerr, "Failed to close summary sinks")
	}
	return err
}
