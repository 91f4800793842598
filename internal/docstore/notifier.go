package docstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Notifier fans collection-change events out to other server processes.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	// Listen calls fn for every published collection name until ctx ends.
	Listen(ctx context.Context, fn func(collection string)) error
}

// RedisNotifier publishes change events on a redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Publish(ctx context.Context, collection string) error {
	return n.client.Publish(ctx, n.channel, collection).Err()
}

func (n *RedisNotifier) Listen(ctx context.Context, fn func(collection string)) error {
	ps := n.client.Subscribe(ctx, n.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}
