// Package redis publishes committed lifecycle changes to the live order
// channel watched by connected clients.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmehra2102/streetfood-connect/internal/grouporder/domain"
)

// OrderChannel is the pub/sub channel for one group order's room.
func OrderChannel(groupOrderID string) string { return "order:" + groupOrderID }

type Publisher struct {
	rdb *goredis.Client
}

func NewPublisher(rdb *goredis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.StatusChanged) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, OrderChannel(ev.GroupOrderID), raw).Err(); err != nil {
		return fmt.Errorf("publish status change for %s: %w", ev.GroupOrderID, err)
	}
	return nil
}
