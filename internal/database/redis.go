package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisClientName = "gema-daily-challenge"

// ConnectRedis parses url and pings the server before returning. The client
// backs both the draft store and the challenge list cache, so short timeouts
// keep a slow Redis from stalling request handlers.
func ConnectRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if options.ClientName == "" {
		options.ClientName = redisClientName
	}
	if options.DialTimeout == 0 {
		options.DialTimeout = 3 * time.Second
	}
	if options.ReadTimeout == 0 {
		options.ReadTimeout = time.Second
	}
	if options.WriteTimeout == 0 {
		options.WriteTimeout = time.Second
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", options.Addr, err)
	}

	return client, nil
}
