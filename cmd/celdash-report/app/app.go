package app

import (
	"fmt"
	"os"

	"github.com/autopeer-io/celdash/cmd/celdash-report/app/options"
	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/pkg/app"
	"github.com/autopeer-io/celdash/pkg/log"
)

const (
	commandName = "celdash-report"
	commandDesc = `The celdash report loads one date range of a fleet database and
prints a single dashboard view (trend, dtc, units, comm, top10 or kpi) as a
table.`
)

func NewApp() *app.App {
	opts := options.NewReportOptions()
	application := app.NewApp(
		commandName,
		"Print a celdash dashboard view",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.ReportOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := app.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		svc, err := cfg.NewDashboard(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Initialize(ctx); err != nil {
			return err
		}
		snap, err := svc.Apply(ctx, opts.Query.Request())
		if err != nil {
			return err
		}

		trend, err := svc.Rebucket(calendar.Granularity(opts.Query.Granularity))
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%s to %s, %d devices, %s buckets\n",
			snap.Range.From.Format("2006-01-02"), snap.Range.To.Format("2006-01-02"), snap.DeviceCount, snap.Granularity)
		return render(os.Stdout, opts.Query, snap, trend)
	}
}
