package notify

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

const DefaultRedisChannel = "wavewatch:signals"

// RedisNotifier publishes alerts as JSON on a Redis PubSub channel.
type RedisNotifier struct {
	rdb     goredis.UniversalClient
	channel string
}

func NewRedisNotifier(rdb goredis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel}
}

func (r *RedisNotifier) Name() string { return "redis" }

func (r *RedisNotifier) Send(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return &NotificationError{Channel: r.Name(), Err: fmt.Errorf("marshal: %w", err)}
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return &NotificationError{Channel: r.Name(), Err: err}
	}
	return nil
}
