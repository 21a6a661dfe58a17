// Package cache implements the tiered analysis cache: an ordered chain of
// backing tiers (in-process LRU, optional Redis, local files) with
// read-through promotion and write-through sets. Tier failures degrade to a
// miss for that tier only; callers never observe an error from Get.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is the unit stored in every tier. The file tier persists it verbatim
// as JSON, one file per key.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Tier is one backing store in the fallback chain. Implementations must be
// safe for concurrent use. A (Entry{}, false, nil) return is a clean miss;
// a non-nil error means the tier is unavailable for this operation.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Config holds the tier-chain options. Zero values disable the optional
// tiers: an empty RedisAddr skips the Redis tier, an empty FileDir skips
// the file tier.
type Config struct {
	RedisAddr        string
	FileDir          string
	DefaultTTL       time.Duration
	MaxMemoryEntries int
}
