package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	pkgmqtt "github.com/autopeer-io/celdash/pkg/mqtt"
	"github.com/autopeer-io/celdash/pkg/mqtt/topic"
	"github.com/autopeer-io/celdash/pkg/options"
)

var _ core.SummaryNotifier = (*MQTTNotifier)(nil)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// publisher is the part of pkgmqtt.Client the notifier uses.
type publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
	Disconnect(ctx context.Context)
}

// MQTTNotifier publishes summaries to {root}/summary/{database}.
type MQTTNotifier struct {
	client publisher
	topics *topic.TopicBuilder
	qos    int
}

// NewMQTTNotifier connects a dedicated publishing client to the broker.
// Its status topic reads "online" while connected; a will message flips it
// to "offline" when the connection drops.
func NewMQTTNotifier(ctx context.Context, opts *options.MqttOptions) (*MQTTNotifier, error) {
	topics := topic.NewTopicBuilder(opts.TopicRoot)

	cfg := opts.ToClientConfig()
	cfg.ClientID = opts.ClientID + "-notifier"
	cfg.WillTopic = topics.Status(cfg.ClientID)
	cfg.WillPayload = []byte(statusOffline)
	cfg.OnlinePayload = []byte(statusOnline)
	cfg.WillQoS = byte(opts.QoS)
	cfg.WillRetain = true

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// Start is non-blocking; autopaho queues the first publishes until connected.
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start mqtt client: %w", err)
	}

	return newMQTTNotifier(client, topics, opts.QoS), nil
}

func newMQTTNotifier(client publisher, topics *topic.TopicBuilder, qos int) *MQTTNotifier {
	return &MQTTNotifier{client: client, topics: topics, qos: qos}
}

func (n *MQTTNotifier) Notify(ctx context.Context, s *core.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return n.client.Publish(ctx, n.topics.Summary(s.Database), n.qos, true, payload)
}

func (n *MQTTNotifier) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n.client.Disconnect(ctx)
	return nil
}
