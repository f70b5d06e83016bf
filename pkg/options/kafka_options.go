package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*KafkaOptions)(nil)

// KafkaOptions contains configuration for the Kafka summary publisher.
type KafkaOptions struct {
	// Enabled turns on publishing of fetch summaries to Kafka.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	Brokers []string `json:"brokers" mapstructure:"brokers"`
	Topic   string   `json:"topic" mapstructure:"topic"`

	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
}

// NewKafkaOptions creates a new KafkaOptions with default values.
func NewKafkaOptions() *KafkaOptions {
	return &KafkaOptions{
		Brokers:      []string{"localhost:9092"},
		Topic:        "fleet.cel.summary",
		WriteTimeout: 10 * time.Second,
	}
}

// Validate checks the Kafka options when publishing is enabled.
func (o *KafkaOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errs := []error{}

	if len(o.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers must list at least one broker"))
	}
	for _, b := range o.Brokers {
		if err := ValidateAddress(b); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required"))
	}

	return errs
}

// AddFlags adds flags for KafkaOptions to the specified FlagSet.
func (o *KafkaOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "kafka.enabled", o.Enabled, "Publish fetch summaries to Kafka.")
	fs.StringSliceVar(&o.Brokers, "kafka.brokers", o.Brokers, "Kafka bootstrap brokers (host:port).")
	fs.StringVar(&o.Topic, "kafka.topic", o.Topic, "Kafka topic for fetch summaries.")
	fs.DurationVar(&o.WriteTimeout, "kafka.write-timeout", o.WriteTimeout, "Timeout for a single Kafka write.")
}
