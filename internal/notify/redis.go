package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are published on.
const DefaultChannel = "EVENT_APPLICATION"

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// RedisNotifier publishes events as JSON for the delivery service.
type RedisNotifier struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisNotifier(rdb redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, owner int64, ev Event) error {
	ev.OwnerID = owner
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}
