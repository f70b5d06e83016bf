package app

import (
	"fmt"

	"github.com/autopeer-io/celdash/cmd/celdash-server/app/options"
	"github.com/autopeer-io/celdash/pkg/app"
	"github.com/autopeer-io/celdash/pkg/log"
)

const (
	commandName = "celdash-server"
	commandDesc = `The celdash server correlates check engine light faults with trips
of a fleet database and serves the trend, DTC, unit and communication views
over HTTP. It loads the default date preset on start.`
)

func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		commandName,
		"Launch the celdash dashboard server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := app.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create celdash server: %w", err)
		}

		return server.Run(ctx)
	}
}
