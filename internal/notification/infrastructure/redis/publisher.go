package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmehra2102/streetfood-connect/internal/notification/domain"
)

// Publisher delivers notifications over Redis pub/sub; the websocket
// gateway subscribes to the order and user channels.
type Publisher struct {
	rdb *goredis.Client
}

func NewPublisher(rdb *goredis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) PublishRoom(ctx context.Context, u domain.RoomUpdate) error {
	return p.publish(ctx, domain.RoomChannel(u.OrderID), u)
}

func (p *Publisher) PublishUser(ctx context.Context, vendorID string, push domain.Push) error {
	return p.publish(ctx, domain.UserChannel(vendorID), push)
}

func (p *Publisher) publish(ctx context.Context, channel string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, raw).Err()
}
