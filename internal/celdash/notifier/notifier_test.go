package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/pkg/mqtt/topic"
)

type published struct {
	topic   string
	qos     int
	retain  bool
	payload []byte
}

type fakePublisher struct {
	msgs         []published
	err          error
	disconnected bool
}

func (p *fakePublisher) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic, qos, retain, payload})
	return nil
}

func (p *fakePublisher) Disconnect(context.Context) { p.disconnected = true }

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
	hasDL  bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.hasDL = ctx.Deadline()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, *core.Summary) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) Close() error { return nil }

func testSummary() *core.Summary {
	return &core.Summary{
		Session:     "s-1",
		Database:    "acme",
		From:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		Granularity: "day",
		Devices:     12,
		FleetCelPct: 12.5,
		ActiveCel:   3,
		Faults:      40,
		GeneratedAt: time.Date(2024, 5, 8, 1, 0, 0, 0, time.UTC),
	}
}

func TestMQTTNotifier_Notify(t *testing.T) {
	pub := &fakePublisher{}
	n := newMQTTNotifier(pub, topic.NewTopicBuilder("fleet/cel/v1"), 1)

	require.NoError(t, n.Notify(context.Background(), testSummary()))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "fleet/cel/v1/summary/acme", msg.topic)
	assert.Equal(t, 1, msg.qos)
	assert.True(t, msg.retain)

	var got core.Summary
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, 12.5, got.FleetCelPct)
	assert.Equal(t, "s-1", got.Session)

	require.NoError(t, n.Close())
	assert.True(t, pub.disconnected)
}

func TestKafkaNotifier_Notify(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifier(w, time.Second)

	require.NoError(t, n.Notify(context.Background(), testSummary()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("acme"), w.msgs[0].Key)
	assert.True(t, w.hasDL)
	assert.Contains(t, string(w.msgs[0].Value), `"activeCel":3`)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestMulti_Notify(t *testing.T) {
	ok := &stubNotifier{}
	bad := &stubNotifier{err: errors.New("broker down")}

	m := NewMulti().Add("mqtt", bad).Add("kafka", ok)
	assert.Equal(t, 2, m.Len())

	err := m.Notify(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt: broker down")
	assert.Equal(t, 1, ok.calls, "a failing sink does not block the others")

	assert.NoError(t, NewMulti().Notify(context.Background(), testSummary()))
}
