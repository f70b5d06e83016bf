package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/pkg/options"
)

var _ core.SummaryNotifier = (*KafkaNotifier)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes summaries to a Kafka topic keyed by database.
type KafkaNotifier struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaNotifier creates a synchronous writer for the configured topic.
func NewKafkaNotifier(opts *options.KafkaOptions) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaNotifier(w, opts.WriteTimeout)
}

func newKafkaNotifier(w messageWriter, timeout time.Duration) *KafkaNotifier {
	return &KafkaNotifier{writer: w, timeout: timeout}
}

func (n *KafkaNotifier) Notify(ctx context.Context, s *core.Summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(s.Database),
		Value: b,
		Time:  s.GeneratedAt,
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
