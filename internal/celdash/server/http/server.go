package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/celdash/pkg/log"
	"github.com/autopeer-io/celdash/pkg/options"
)

// AllowedHeaders are accepted on cross-origin requests. The ngrok header lets
// tunnelled deployments skip the interstitial page.
var AllowedHeaders = []string{"Content-Type", "Authorization", "ngrok-skip-browser-warning"}

const apiPrefix = "/api/v1"

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// NewServer builds the HTTP API, probes and metrics endpoint over svc.
func NewServer(opts *options.HttpOptions, svc Dashboard) *Server {
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewHandler(opts, svc),
			ReadHeaderTimeout: opts.Timeout,
			ReadTimeout:       opts.Timeout,
		},
		options: opts,
	}
}

// NewHandler returns the routed handler wrapped with CORS, access logging
// and panic recovery.
func NewHandler(opts *options.HttpOptions, svc Dashboard) http.Handler {
	h := &handler{svc: svc}

	r := mux.NewRouter()

	// Basic Liveness Probe
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Ready once the device context is loaded.
	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !svc.Initialized() {
			http.Error(w, "initializing", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	// API routes sit on the root router so a wrong method answers 405; a
	// subrouter would report 404.
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.HandleFunc(apiPrefix+"/apply", h.apply).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/cancel", h.cancel).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/refresh", h.refresh).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/snapshot", h.snapshot).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/trend", h.trend).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/dtc", h.dtc).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/units", h.units).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/comm", h.comm).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/kpi", h.kpi).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/top10", h.top10).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/filters", h.filters).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/progress", h.progress).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders(AllowedHeaders),
	)

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(handlers.CombinedLoggingHandler(accessLog{}, cors(r)))
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// accessLog routes combined-format access lines to the debug log.
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	log.Debug("HTTP request", "access", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Warn("Recovered from handler panic", "panic", v)
}
