package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*VinOptions)(nil)

// VinOptions configures VIN decoding of devices missing year/make/type/engine.
type VinOptions struct {
	Enabled   bool          `json:"enabled" mapstructure:"enabled"`
	BaseURL   string        `json:"base-url" mapstructure:"base-url"`
	BatchSize int           `json:"batch-size" mapstructure:"batch-size"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewVinOptions creates a VinOptions object with default parameters.
func NewVinOptions() *VinOptions {
	return &VinOptions{
		BaseURL:   "https://vpic.nhtsa.dot.gov/api",
		BatchSize: 50,
		Timeout:   20 * time.Second,
	}
}

// Validate checks the decoder settings when decoding is enabled.
func (o *VinOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errs := []error{}
	if o.BaseURL == "" {
		errs = append(errs, errors.New("vin.base-url is required"))
	}
	if o.BatchSize < 1 || o.BatchSize > 50 {
		errs = append(errs, errors.New("vin.batch-size must be between 1 and 50"))
	}
	return errs
}

// AddFlags adds flags for VinOptions to the specified FlagSet.
func (o *VinOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "vin.enabled", o.Enabled, "Decode VINs to fill missing year, make, type and engine.")
	fs.StringVar(&o.BaseURL, "vin.base-url", o.BaseURL, "Base URL of the VIN decoding service.")
	fs.IntVar(&o.BatchSize, "vin.batch-size", o.BatchSize, "VINs per decode request.")
	fs.DurationVar(&o.Timeout, "vin.timeout", o.Timeout, "Timeout of a decode request.")
}
