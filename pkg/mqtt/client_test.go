package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ClientConfig
	}{
		{"nil config", nil},
		{"no broker", &ClientConfig{}},
		{"no scheme", &ClientConfig{BrokerURL: "localhost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestClient_BeforeStart(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "celdash-test"})
	require.NoError(t, err)
	assert.False(t, c.IsConnected())

	assert.ErrorIs(t, c.Publish(context.Background(), "t", 1, false, []byte("x")), errNotStarted)
	assert.ErrorIs(t, c.AwaitConnection(context.Background()), errNotStarted)

	c.Disconnect(context.Background())
	assert.False(t, c.IsConnected())
}

func TestSetDefaultConfig(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883"}
	setDefaultConfig(cfg)
	assert.EqualValues(t, 60, cfg.KeepAlive)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)

	cfg = &ClientConfig{KeepAlive: 10, ConnectTimeout: time.Second}
	setDefaultConfig(cfg)
	assert.EqualValues(t, 10, cfg.KeepAlive)
	assert.Equal(t, time.Second, cfg.ConnectTimeout)
}

func TestStatusMessages(t *testing.T) {
	c := &publisher{cfg: &ClientConfig{}}
	assert.Nil(t, c.willMessage())
	assert.Nil(t, c.onlineMessage())

	c.cfg = &ClientConfig{
		WillTopic:   "fleet/cel/v1/status/celdash-notifier",
		WillPayload: []byte("offline"),
		WillQoS:     1,
		WillRetain:  true,
	}
	will := c.willMessage()
	require.NotNil(t, will)
	assert.Equal(t, "fleet/cel/v1/status/celdash-notifier", will.Topic)
	assert.Equal(t, []byte("offline"), will.Payload)
	assert.True(t, will.Retain)
	assert.Nil(t, c.onlineMessage(), "no online payload configured")

	c.cfg.OnlinePayload = []byte("online")
	online := c.onlineMessage()
	require.NotNil(t, online)
	assert.Equal(t, will.Topic, online.Topic)
	assert.Equal(t, []byte("online"), online.Payload)
	assert.EqualValues(t, 1, online.QoS)
	assert.True(t, online.Retain)
}
