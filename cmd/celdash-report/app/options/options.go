package options

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/celdash/internal/celdash"
	"github.com/autopeer-io/celdash/internal/celdash/calendar"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/dashboard"
	"github.com/autopeer-io/celdash/pkg/app"
	"github.com/autopeer-io/celdash/pkg/log"
	"github.com/autopeer-io/celdash/pkg/options"
)

// Tables lists the printable views.
var Tables = []string{"trend", "dtc", "units", "comm", "top10", "kpi"}

// QueryOptions selects what the report loads and prints.
type QueryOptions struct {
	Table       string `json:"table" mapstructure:"table"`
	Preset      string `json:"preset" mapstructure:"preset"`
	From        string `json:"from" mapstructure:"from"`
	To          string `json:"to" mapstructure:"to"`
	Granularity string `json:"granularity" mapstructure:"granularity"`

	Vehicle string `json:"vehicle" mapstructure:"vehicle"`
	Region  string `json:"region" mapstructure:"region"`
	Branch  string `json:"branch" mapstructure:"branch"`
	Year    string `json:"year" mapstructure:"year"`
	Make    string `json:"make" mapstructure:"make"`
	VType   string `json:"vtype" mapstructure:"vtype"`

	// Search, State and Status narrow the dtc, units and comm tables.
	Search string `json:"search" mapstructure:"search"`
	State  string `json:"state" mapstructure:"state"`
	Status string `json:"status" mapstructure:"status"`
}

func (o *QueryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Table, "report.table", o.Table, fmt.Sprintf("Table to print, one of %v.", Tables))
	fs.StringVar(&o.Preset, "report.preset", o.Preset, "Date preset (yesterday, 7days, 30days, custom).")
	fs.StringVar(&o.From, "report.from", o.From, "First day of a custom range.")
	fs.StringVar(&o.To, "report.to", o.To, "Last day of a custom range.")
	fs.StringVar(&o.Granularity, "report.granularity", o.Granularity, "Trend bucket (day, week, month); empty picks one from the range.")
	fs.StringVar(&o.Vehicle, "report.vehicle", o.Vehicle, "Device id; overrides every other device filter.")
	fs.StringVar(&o.Region, "report.region", o.Region, "Region group id.")
	fs.StringVar(&o.Branch, "report.branch", o.Branch, "Branch group id.")
	fs.StringVar(&o.Year, "report.year", o.Year, "Vehicle model year.")
	fs.StringVar(&o.Make, "report.make", o.Make, "Vehicle make.")
	fs.StringVar(&o.VType, "report.vtype", o.VType, "Vehicle type.")
	fs.StringVar(&o.Search, "report.search", o.Search, "Case-insensitive search of the dtc, units or comm table.")
	fs.StringVar(&o.State, "report.state", o.State, "DTC state (Active, Pending, Cleared).")
	fs.StringVar(&o.Status, "report.status", o.Status, "Communication status (reporting, not-reporting).")
}

func (o *QueryOptions) Validate() []error {
	var errs []error
	if !slices.Contains(Tables, o.Table) {
		errs = append(errs, fmt.Errorf("report.table %q is not one of %v", o.Table, Tables))
	}
	if o.Granularity != "" {
		if _, err := calendar.ParseGranularity(o.Granularity); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Request returns the dashboard request of the query.
func (o *QueryOptions) Request() dashboard.Request {
	return dashboard.Request{
		Preset: o.Preset,
		From:   o.From,
		To:     o.To,
		Filter: model.DeviceFilter{
			VehicleID: o.Vehicle,
			RegionID:  o.Region,
			BranchID:  o.Branch,
			Year:      o.Year,
			Make:      o.Make,
			VType:     o.VType,
		},
	}
}

type ReportOptions struct {
	Query        *QueryOptions         `json:"report" mapstructure:"report"`
	FleetOptions *options.FleetOptions `json:"fleet" mapstructure:"fleet"`
	FetchOptions *options.FetchOptions `json:"fetch" mapstructure:"fetch"`
	VinOptions   *options.VinOptions   `json:"vin" mapstructure:"vin"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ReportOptions)(nil)

func NewReportOptions() *ReportOptions {
	logOpts := log.NewOptions()
	logOpts.Level = "warn"
	logOpts.OutputPaths = []string{"stderr"}

	return &ReportOptions{
		Query:        &QueryOptions{Table: "trend", Preset: calendar.Preset7Days},
		FleetOptions: options.NewFleetOptions(),
		FetchOptions: options.NewFetchOptions(),
		VinOptions:   options.NewVinOptions(),
		Log:          logOpts,
	}
}

func (o *ReportOptions) Flags() app.NamedFlagSets {
	fss := app.NamedFlagSets{}
	o.Query.AddFlags(fss.FlagSet("report"))
	o.FleetOptions.AddFlags(fss.FlagSet("fleet"))
	o.FetchOptions.AddFlags(fss.FlagSet("fetch"))
	o.VinOptions.AddFlags(fss.FlagSet("vin"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ReportOptions) Complete() error {
	if o.Query.From != "" || o.Query.To != "" {
		o.Query.Preset = calendar.PresetCustom
	}
	return nil
}

func (o *ReportOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Query.Validate()...)
	errs = append(errs, o.FleetOptions.Validate()...)
	errs = append(errs, o.FetchOptions.Validate()...)
	errs = append(errs, o.VinOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *ReportOptions) Config() (*celdash.Config, error) {
	return &celdash.Config{
		FleetOptions: o.FleetOptions,
		FetchOptions: o.FetchOptions,
		VinOptions:   o.VinOptions,
	}, nil
}
