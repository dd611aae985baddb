// Package events implements the event publisher port: Redis pub/sub for real
// observers, a log publisher as the fallback.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// RedisPublisher publishes committed-state events on a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  logger.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, redisURL, channel string, log logger.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  log,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Warn(ctx, "failed to publish event", map[string]interface{}{
			"event_type": string(event.Type),
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
