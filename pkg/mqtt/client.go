package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/celdash/pkg/log"
)

var errNotStarted = errors.New("mqtt client not started")

type publisher struct {
	cfg *ClientConfig
	cm  *autopaho.ConnectionManager

	connected atomic.Bool
}

// NewClient validates cfg and returns a Client. Nothing is dialled until Start.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}

	setDefaultConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &publisher{cfg: cfg}, nil
}

func (c *publisher) Start(ctx context.Context) error {
	brokerURL, _ := url.Parse(c.cfg.BrokerURL) // validated in NewClient

	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{brokerURL},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(3 * time.Second),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg:                        &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify},
		WillMessage:                   c.willMessage(),
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      func(err error) { log.Error(err, "MQTT client error") },
			OnServerDisconnect: c.onServerDisconnect,
		},
		OnConnectionUp: c.onConnectionUp,
		OnConnectError: c.onConnectError,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.BrokerURL, err)
	}

	log.Info("MQTT publisher started", "broker", c.cfg.BrokerURL, "clientID", c.cfg.ClientID)
	c.cm = cm
	return nil
}

func (c *publisher) Disconnect(ctx context.Context) {
	c.connected.Store(false)
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		log.Warn("MQTT disconnect did not complete", "error", err)
		return
	}
	log.Info("MQTT publisher disconnected")
}

func (c *publisher) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return errNotStarted
	}

	if _, err := c.cm.Publish(ctx, newPublish(topic, byte(qos), retain, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (c *publisher) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return errNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *publisher) IsConnected() bool {
	return c.connected.Load()
}

// onConnectionUp runs on every (re)connect. It overwrites the retained will
// so subscribers see the publisher online again.
func (c *publisher) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.connected.Store(true)
	log.Info("MQTT connection established", "broker", c.cfg.BrokerURL)

	p := c.onlineMessage()
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		defer cancel()
		if _, err := cm.Publish(ctx, p); err != nil {
			log.Error(err, "Failed to publish online status", "topic", p.Topic)
		}
	}()
}

func (c *publisher) onConnectError(err error) {
	c.connected.Store(false)
	log.Error(err, "MQTT connection failed, retrying")
}

func (c *publisher) onServerDisconnect(d *paho.Disconnect) {
	c.connected.Store(false)
	reason := ""
	if d != nil && d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	log.Warn("MQTT server requested disconnect", "reason", reason)
}

func (c *publisher) willMessage() *paho.WillMessage {
	if c.cfg.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.cfg.WillTopic,
		Payload: c.cfg.WillPayload,
		QoS:     c.cfg.WillQoS,
		Retain:  c.cfg.WillRetain,
	}
}

// onlineMessage is published on the will topic after each connect, or nil
// when no will or online payload is configured.
func (c *publisher) onlineMessage() *paho.Publish {
	if c.cfg.WillTopic == "" || len(c.cfg.OnlinePayload) == 0 {
		return nil
	}
	return newPublish(c.cfg.WillTopic, c.cfg.WillQoS, c.cfg.WillRetain, c.cfg.OnlinePayload)
}

func newPublish(topic string, qos byte, retain bool, payload []byte) *paho.Publish {
	return &paho.Publish{Topic: topic, QoS: qos, Retain: retain, Payload: payload}
}
