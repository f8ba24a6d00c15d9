package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys and channels shared by the table manager, idle worker and websocket relay.
const (
	TableEventsChannel = "table_events"
	TableIdleSet       = "table_idle"
)

// TableStateKey is where the latest snapshot of a table lives.
func TableStateKey(token string) string {
	return "table:" + token + ":state"
}

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
