package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients splits publishing and subscribing onto separate connections;
// a subscribed connection cannot issue other commands.
type RedisClients struct {
	Events *redis.Client // publish side
	PubSub *redis.Client // subscribe side
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	eventsClient := redis.NewClient(opt)
	if err := eventsClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis (events): %w", err)
	}

	// PubSub client (separate connection)
	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		eventsClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Events: eventsClient,
		PubSub: pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Events.Close()
	r.PubSub.Close()
}
