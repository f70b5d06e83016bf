package celdash

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/internal/celdash/fetch"
	"github.com/autopeer-io/celdash/internal/celdash/geotab"
	"github.com/autopeer-io/celdash/internal/celdash/notifier"
	"github.com/autopeer-io/celdash/internal/celdash/server"
	"github.com/autopeer-io/celdash/internal/celdash/vin"
	"github.com/autopeer-io/celdash/pkg/fleetapi"
	"github.com/autopeer-io/celdash/pkg/options"
)

type Config struct {
	HttpOptions  *options.HttpOptions
	FleetOptions *options.FleetOptions
	FetchOptions *options.FetchOptions
	VinOptions   *options.VinOptions
	MqttOptions  *options.MqttOptions
	KafkaOptions *options.KafkaOptions
}

// NewDashboard wires the fleet API, the optional VIN decoder and the
// summary sinks into a dashboard service.
func (cfg *Config) NewDashboard(ctx context.Context) (*dashboard.Service, error) {
	client, err := fleetapi.NewClient(fleetapi.Config{
		Server:    cfg.FleetOptions.Server,
		Database:  cfg.FleetOptions.Database,
		Username:  cfg.FleetOptions.Username,
		Password:  cfg.FleetOptions.Password,
		SessionID: cfg.FleetOptions.SessionID,
		Timeout:   cfg.FleetOptions.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init fleet api client: %w", err)
	}

	loc, err := cfg.FetchOptions.Location()
	if err != nil {
		return nil, err
	}

	fo := cfg.FetchOptions
	dcfg := dashboard.Config{
		Database:         cfg.FleetOptions.Database,
		FoundationLimit:  fo.FoundationLimit,
		ReferenceLimit:   fo.ResultLimit,
		GroupFilter:      cfg.FleetOptions.GroupFilter,
		NotReportingDays: fo.NotReportingDays,
		Calendar:         calendar.New(loc),
		Fetch: fetch.Config{
			WindowSize:  time.Duration(fo.WindowDays) * 24 * time.Hour,
			Pacing:      fo.Pacing,
			ResultLimit: fo.ResultLimit,
			Retry:       fetch.RetryPolicy{MaxRetries: fo.MaxRetries, Base: fo.BackoffBase, Cap: fo.BackoffCap},
		},
	}

	var opts []dashboard.Option

	if cfg.VinOptions != nil && cfg.VinOptions.Enabled {
		opts = append(opts, dashboard.WithVinDecoder(vin.NewDecoder(vin.Config{
			BaseURL:   cfg.VinOptions.BaseURL,
			BatchSize: cfg.VinOptions.BatchSize,
			Timeout:   cfg.VinOptions.Timeout,
		})))
	}

	sinks := notifier.NewMulti()
	if cfg.MqttOptions != nil && cfg.MqttOptions.Enabled {
		n, err := notifier.NewMQTTNotifier(ctx, cfg.MqttOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt notifier: %w", err)
		}
		sinks.Add("mqtt", n)
	}
	if cfg.KafkaOptions != nil && cfg.KafkaOptions.Enabled {
		sinks.Add("kafka", notifier.NewKafkaNotifier(cfg.KafkaOptions))
	}
	if sinks.Len() > 0 {
		opts = append(opts, dashboard.WithNotifier(sinks))
	}

	return dashboard.New(geotab.NewSource(client), dcfg, opts...), nil
}

// NewServer builds the long running dashboard server.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	svc, err := cfg.NewDashboard(ctx)
	if err != nil {
		return nil, err
	}

	srvManager := server.NewManager(&server.Config{
		HttpOptions:   cfg.HttpOptions,
		DefaultPreset: cfg.FetchOptions.DefaultPreset,
	}, svc)

	return &Server{
		serverManager: srvManager,
		dashboard:     svc,
	}, nil
}
