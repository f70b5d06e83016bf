package options

import (
	"errors"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FleetOptions)(nil)

// FleetOptions holds the connection settings for the fleet telematics API.
type FleetOptions struct {
	// Server is the API host, e.g. "my.geotab.com". A scheme may be given to
	// override https.
	Server   string `json:"server" mapstructure:"server"`
	Database string `json:"database" mapstructure:"database"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	// SessionID reuses an already issued session instead of authenticating.
	SessionID string `json:"session-id" mapstructure:"session-id"`

	// Timeout bounds a single HTTP round trip. Zero disables it.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// GroupFilter lists group ids used as hierarchy roots instead of the company group.
	GroupFilter []string `json:"group-filter" mapstructure:"group-filter"`
}

// NewFleetOptions creates a FleetOptions object with default parameters.
func NewFleetOptions() *FleetOptions {
	return &FleetOptions{
		Server:  "my.geotab.com",
		Timeout: 0,
	}
}

// Validate checks that enough credentials are present to reach the API.
func (o *FleetOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.Server == "" {
		errs = append(errs, errors.New("fleet.server is required"))
	} else if _, err := url.Parse(o.Server); err != nil {
		errs = append(errs, err)
	}
	if o.Database == "" {
		errs = append(errs, errors.New("fleet.database is required"))
	}
	if o.Username == "" {
		errs = append(errs, errors.New("fleet.username is required"))
	}
	if o.Password == "" && o.SessionID == "" {
		errs = append(errs, errors.New("one of fleet.password or fleet.session-id is required"))
	}

	return errs
}

// AddFlags adds flags for FleetOptions to the specified FlagSet.
func (o *FleetOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Server, "fleet.server", o.Server, "Fleet API server host.")
	fs.StringVar(&o.Database, "fleet.database", o.Database, "Fleet database name.")
	fs.StringVar(&o.Username, "fleet.username", o.Username, "Fleet API user name.")
	fs.StringVar(&o.Password, "fleet.password", o.Password, "Fleet API password.")
	fs.StringVar(&o.SessionID, "fleet.session-id", o.SessionID, "Existing fleet API session id; skips authentication.")
	fs.DurationVar(&o.Timeout, "fleet.timeout", o.Timeout, "Per request timeout for fleet API calls (0 waits indefinitely).")
	fs.StringSliceVar(&o.GroupFilter, "fleet.group-filter", o.GroupFilter, "Group ids used as region roots instead of the company group.")
}
