package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and verifies the connection. Redis is an
// optional read cache: when it is unreachable the caller runs against
// Postgres only, so a failed ping returns (nil, nil) rather than an error.
func Connect(addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("[REDIS] Warning: could not connect to Redis: %v. Falling back to PostgreSQL only.", err)
		_ = client.Close()
		return nil, nil
	}

	log.Println("[REDIS] Connected successfully")
	return client, nil
}
