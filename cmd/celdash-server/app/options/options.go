package options

import (
	"errors"

	"github.com/autopeer-io/celdash/internal/celdash"
	"github.com/autopeer-io/celdash/pkg/app"
	"github.com/autopeer-io/celdash/pkg/log"
	"github.com/autopeer-io/celdash/pkg/options"
)

type ServerOptions struct {
	HttpOptions  *options.HttpOptions  `json:"http" mapstructure:"http"`
	FleetOptions *options.FleetOptions `json:"fleet" mapstructure:"fleet"`
	FetchOptions *options.FetchOptions `json:"fetch" mapstructure:"fetch"`
	VinOptions   *options.VinOptions   `json:"vin" mapstructure:"vin"`
	MqttOptions  *options.MqttOptions  `json:"mqtt" mapstructure:"mqtt"`
	KafkaOptions *options.KafkaOptions `json:"kafka" mapstructure:"kafka"`
	Log          *log.Options          `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*ServerOptions)(nil)

func NewServerOptions() *ServerOptions {
	o := &ServerOptions{
		HttpOptions:  options.NewHttpOptions(),
		FleetOptions: options.NewFleetOptions(),
		FetchOptions: options.NewFetchOptions(),
		VinOptions:   options.NewVinOptions(),
		MqttOptions:  options.NewMqttOptions(),
		KafkaOptions: options.NewKafkaOptions(),
		Log:          log.NewOptions(),
	}

	return o
}

func (o *ServerOptions) Flags() app.NamedFlagSets {
	fss := app.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.FleetOptions.AddFlags(fss.FlagSet("fleet"))
	o.FetchOptions.AddFlags(fss.FlagSet("fetch"))
	o.VinOptions.AddFlags(fss.FlagSet("vin"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.KafkaOptions.AddFlags(fss.FlagSet("kafka"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *ServerOptions) Complete() error {
	return nil
}

func (o *ServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.FleetOptions.Validate()...)
	errs = append(errs, o.FetchOptions.Validate()...)
	errs = append(errs, o.VinOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.KafkaOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *ServerOptions) Config() (*celdash.Config, error) {
	return &celdash.Config{
		HttpOptions:  o.HttpOptions,
		FleetOptions: o.FleetOptions,
		FetchOptions: o.FetchOptions,
		VinOptions:   o.VinOptions,
		MqttOptions:  o.MqttOptions,
		KafkaOptions: o.KafkaOptions,
	}, nil
}
