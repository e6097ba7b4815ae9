package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/streetfood-connect/internal/notification/domain"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%d:%d", topic, partition, offset)
}

func (d *memDeduper) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

type brokenDeduper struct{ memDeduper }

func (*brokenDeduper) Seen(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

type recordingHandler struct {
	events []domain.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, ev domain.Event) error {
	h.events = append(h.events, ev)
	return h.err
}

func message(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "grouporder.events", Partition: 0, Offset: offset, Value: []byte(value)}
}

func TestConsumerHandlesAndCommits(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		message(1, `{"type":"GroupOrderClosed","group_order_id":"g1","status":"completed","participants":["V1","V2"]}`),
		message(2, `not json`),
		message(1, `{"type":"GroupOrderClosed","group_order_id":"g1","status":"completed"}`),
		message(3, `{"type":"ParticipantJoined","group_order_id":"g1","vendor_id":"V3","quantity":2}`),
	}}
	handler := &recordingHandler{}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, handler, &memDeduper{seen: map[string]bool{}})

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, reader.closed)
	assert.Equal(t, []int64{1, 2, 1, 3}, reader.committed)

	require.Len(t, handler.events, 2)
	assert.Equal(t, []string{"V1", "V2"}, handler.events[0].Participants)
	assert.Equal(t, "V3", handler.events[1].VendorID)
}

func TestConsumerCommitsAfterDeliveryFailure(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		message(5, `{"type":"GroupOrderCancelled","group_order_id":"g2","status":"cancelled","participants":["V1"]}`),
	}}
	handler := &recordingHandler{err: errors.New("vendor V1: redis unavailable")}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, handler, &memDeduper{seen: map[string]bool{}})

	assert.ErrorIs(t, c.Run(context.Background()), io.EOF)
	assert.Equal(t, []int64{5}, reader.committed)
}

func TestConsumerHandlesWhenDedupUnavailable(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		message(7, `{"type":"GroupOrderClosed","group_order_id":"g3","status":"completed","participants":["V1"]}`),
		message(8, `{"type":"ParticipantJoined","group_order_id":"g3","vendor_id":"V2","quantity":1}`),
	}}
	handler := &recordingHandler{}
	c := NewConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, handler, &brokenDeduper{})

	assert.ErrorIs(t, c.Run(context.Background()), io.EOF)
	assert.Equal(t, []int64{7, 8}, reader.committed)
	require.Len(t, handler.events, 2)
	assert.Equal(t, "g3", handler.events[0].GroupOrderID)
	assert.Equal(t, "V2", handler.events[1].VendorID)
}
