package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every Redis round trip so a slow or partitioned
// server cannot make the cache slower than no cache at all.
const redisOpTimeout = 2 * time.Second

// Redis is the distributed tier, shared across processes pointing at the
// same server. Entries are stored as JSON under a namespacing prefix with a
// native Redis TTL matching the entry expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis tier for addr (host:port). The connection is
// lazy; reachability is reported by Ping.
func NewRedis(addr string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "tubelens:cache:",
	}
}

// Name identifies the tier in logs, metrics, and health reports.
func (r *Redis) Name() string { return "redis" }

func (r *Redis) key(key string) string { return r.prefix + key }

// Get fetches and decodes the entry for key. redis.Nil is a clean miss; any
// other error marks the tier unavailable for this lookup.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt payload: drop it and report a miss.
		_ = r.client.Del(ctx, r.key(key)).Err()
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores the entry with a native TTL so Redis expires it on its own even
// if this process never reads the key again.
func (r *Redis) Set(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Clear removes every key under this tier's prefix using SCAN, leaving other
// users of the same Redis instance untouched.
func (r *Redis) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear scan: %w", err)
	}
	return nil
}

// Ping checks server reachability.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }
