package mqtt

import (
	"context"
)

// Client publishes to an MQTT broker over a connection that is kept up in
// the background.
type Client interface {
	// Start begins connecting and returns without waiting for the broker.
	Start(ctx context.Context) error

	// Disconnect closes the connection. It is a no-op before Start.
	Disconnect(ctx context.Context)

	// Publish sends payload to topic. Publishes made while the connection is
	// down wait for it to come back or for ctx to end.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// AwaitConnection blocks until the client is connected.
	AwaitConnection(ctx context.Context) error

	IsConnected() bool
}
