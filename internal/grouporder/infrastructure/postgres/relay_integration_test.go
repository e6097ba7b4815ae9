//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
	grouporderkafka "github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/kafka"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/postgres"
	"github.com/dmehra2102/streetfood-connect/internal/testenv"
	"github.com/dmehra2102/streetfood-connect/pkg/outbox"
	"github.com/dmehra2102/streetfood-connect/pkg/tracing"
)

func TestRelayPublishesOutboxToKafka(t *testing.T) {
	env := testenv.Setup(t, testenv.Options{WithKafka: true})
	log := testenv.Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const topic = "grouporder.events.test"
	repo := postgres.NewRepository(log, env.Pool, time.Second, "test")
	require.NoError(t, repo.Create(ctx, newOrder(t, "g1", "V1", created)))
	_, err := repo.Update(ctx, "g1", func(o *domain.GroupOrder) error { return o.Close(created.Add(time.Minute)) })
	require.NoError(t, err)

	writer := grouporderkafka.NewWriter(env.KAddr)
	defer writer.Close()
	relay := outbox.NewRelay(log, postgres.NewOutboxStore(log, env.Pool), outbox.NewDispatcher(log, writer, topic), "relay-test")

	require.Eventually(t, func() bool {
		n, err := relay.Flush(ctx)
		return err == nil && n == 0 && pendingOutbox(env) == 0
	}, time.Minute, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: env.KAddr, Topic: topic, GroupID: "relay-test", StartOffset: kafka.FirstOffset})
	defer reader.Close()

	var types []string
	for len(types) < 2 {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, "g1", string(msg.Key))
		var ev domain.Event
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, string(ev.Type), tracing.HeaderValue(msg.Headers, "event_type"))
		types = append(types, string(ev.Type))
	}
	assert.Equal(t, []string{"GroupOrderCreated", "GroupOrderClosed"}, types)
}

func pendingOutbox(env *testenv.Env) int {
	var n int
	if err := env.Pool.QueryRow(context.Background(), `SELECT count(*) FROM outbox WHERE status <> 'sent'`).Scan(&n); err != nil {
		return -1
	}
	return n
}
