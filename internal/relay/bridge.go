package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBridge carries frames between instances over one pub/sub channel.
type RedisBridge struct {
	client  *redis.Client
	channel string
}

func NewRedisBridge(client *redis.Client, channel string) *RedisBridge {
	return &RedisBridge{client: client, channel: channel}
}

func (b *RedisBridge) Publish(ctx context.Context, msg []byte) error {
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe blocks, handing every message on the channel to deliver, until
// ctx is cancelled or the subscription cannot be established.
func (b *RedisBridge) Subscribe(ctx context.Context, deliver func([]byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			deliver([]byte(m.Payload))
		}
	}
}
