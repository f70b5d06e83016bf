package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FetchOptions)(nil)

// FetchOptions tunes the chunked fetch and the calendar used for correlation.
type FetchOptions struct {
	// WindowDays is the size of each sequential time window.
	WindowDays int `json:"window-days" mapstructure:"window-days"`

	// Pacing is the delay issued before every window except the first.
	Pacing time.Duration `json:"pacing" mapstructure:"pacing"`

	// ResultLimit caps records per fault/trip call.
	ResultLimit int `json:"result-limit" mapstructure:"result-limit"`

	// FoundationLimit caps records per device/group/status call.
	FoundationLimit int `json:"foundation-limit" mapstructure:"foundation-limit"`

	// MaxRetries is the number of retries of the batched CEL call.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	BackoffBase time.Duration `json:"backoff-base" mapstructure:"backoff-base"`
	BackoffCap  time.Duration `json:"backoff-cap" mapstructure:"backoff-cap"`

	// Timezone is the IANA zone used for calendar day keys. "Local" uses the host zone.
	Timezone string `json:"timezone" mapstructure:"timezone"`

	// NotReportingDays is the silence threshold after which a device is "Not Reporting".
	NotReportingDays int `json:"not-reporting-days" mapstructure:"not-reporting-days"`

	// DefaultPreset is the date preset loaded on first start.
	DefaultPreset string `json:"default-preset" mapstructure:"default-preset"`
}

// NewFetchOptions creates a FetchOptions object with default parameters.
func NewFetchOptions() *FetchOptions {
	return &FetchOptions{
		WindowDays:       7,
		Pacing:           300 * time.Millisecond,
		ResultLimit:      50000,
		FoundationLimit:  5000,
		MaxRetries:       3,
		BackoffBase:      time.Second,
		BackoffCap:       8 * time.Second,
		Timezone:         "Local",
		NotReportingDays: 3,
		DefaultPreset:    "7days",
	}
}

// Validate checks the fetch tuning values.
func (o *FetchOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.WindowDays < 1 {
		errs = append(errs, errors.New("fetch.window-days must be at least 1"))
	}
	if o.Pacing < 0 {
		errs = append(errs, errors.New("fetch.pacing must not be negative"))
	}
	if o.ResultLimit < 1 || o.FoundationLimit < 1 {
		errs = append(errs, errors.New("fetch result limits must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.max-retries must not be negative"))
	}
	if o.BackoffBase <= 0 || o.BackoffCap < o.BackoffBase {
		errs = append(errs, errors.New("fetch.backoff-cap must be at least fetch.backoff-base, which must be positive"))
	}
	if _, err := o.Location(); err != nil {
		errs = append(errs, err)
	}
	switch o.DefaultPreset {
	case "yesterday", "7days", "30days":
	default:
		errs = append(errs, fmt.Errorf("fetch.default-preset %q is not one of yesterday, 7days, 30days", o.DefaultPreset))
	}

	return errs
}

// Location resolves Timezone.
func (o *FetchOptions) Location() (*time.Location, error) {
	if o.Timezone == "" || o.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch.timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}

// AddFlags adds flags for FetchOptions to the specified FlagSet.
func (o *FetchOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.WindowDays, "fetch.window-days", o.WindowDays, "Days per sequential fetch window.")
	fs.DurationVar(&o.Pacing, "fetch.pacing", o.Pacing, "Delay before each fetch window after the first.")
	fs.IntVar(&o.ResultLimit, "fetch.result-limit", o.ResultLimit, "Maximum records returned by one fault or trip call.")
	fs.IntVar(&o.FoundationLimit, "fetch.foundation-limit", o.FoundationLimit, "Maximum records returned by one device, group or status call.")
	fs.IntVar(&o.MaxRetries, "fetch.max-retries", o.MaxRetries, "Retries of the batched CEL fault call.")
	fs.DurationVar(&o.BackoffBase, "fetch.backoff-base", o.BackoffBase, "Base of the exponential retry backoff.")
	fs.DurationVar(&o.BackoffCap, "fetch.backoff-cap", o.BackoffCap, "Upper bound of the retry backoff.")
	fs.StringVar(&o.Timezone, "fetch.timezone", o.Timezone, "IANA timezone for calendar day keys.")
	fs.IntVar(&o.NotReportingDays, "fetch.not-reporting-days", o.NotReportingDays, "Days of silence before a device is Not Reporting.")
	fs.StringVar(&o.DefaultPreset, "fetch.default-preset", o.DefaultPreset, "Date preset loaded on start (yesterday, 7days, 30days).")
}
