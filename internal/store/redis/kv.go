// Package redis implements the model.KVStore port on a Redis server.
// Each logical mapping (accounts, one watchlist per account) lives under a
// single key as a JSON blob.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// KV is a Redis-backed key-value store.
type KV struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (kv *KV) Client() *goredis.Client { return kv.client }

// New creates a new Redis KV store and pings the server.
func New(cfg Config) (*KV, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &KV{client: client}, nil
}

// Get returns the value stored under key. A missing key is reported via
// ok=false, not an error.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := kv.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with no expiry.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	if err := kv.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (kv *KV) Delete(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (kv *KV) Close() error {
	return kv.client.Close()
}
