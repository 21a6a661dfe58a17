package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tubelens/tubelens/internal/logging"
	"github.com/tubelens/tubelens/internal/metrics"
)

// Tiered is the read-through/write-through cache over an ordered tier chain,
// fastest tier first. Lookups walk the chain and promote hits into every
// faster tier; sets write through to every tier. A tier error never reaches
// the caller: Get treats it as a miss for that tier, Set reports it in the
// boolean result only when the failing tier is correctness-relevant.
//
// Tiered holds no lock of its own. Each tier synchronizes internally, so a
// slow Redis or disk call never blocks concurrent access to the memory tier.
type Tiered struct {
	tiers      []Tier
	memory     *Memory
	defaultTTL time.Duration
}

// New builds the tier chain from cfg: memory always, Redis when RedisAddr is
// set, file when FileDir is set.
func New(cfg Config) (*Tiered, error) {
	mem := NewMemory(cfg.MaxMemoryEntries)
	tiers := []Tier{mem}

	if cfg.RedisAddr != "" {
		tiers = append(tiers, NewRedis(cfg.RedisAddr))
	}
	if cfg.FileDir != "" {
		ft, err := NewFile(cfg.FileDir)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, ft)
	}

	return &Tiered{tiers: tiers, memory: mem, defaultTTL: cfg.DefaultTTL}, nil
}

// NewWithTiers builds a cache over an explicit tier chain. The first tier
// must be the in-process Memory tier.
func NewWithTiers(memory *Memory, defaultTTL time.Duration, extra ...Tier) *Tiered {
	return &Tiered{
		tiers:      append([]Tier{memory}, extra...),
		memory:     memory,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key, walking the tier chain until a live
// entry is found. A hit in a slower tier is written through to every faster
// tier before returning. Expired entries are deleted from the tier they were
// found in and skipped.
func (c *Tiered) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	now := time.Now()
	for i, tier := range c.tiers {
		entry, ok, err := tier.Get(ctx, key)
		if err != nil {
			logging.FromContext(ctx).Warn("cache tier lookup failed",
				"tier", tier.Name(), "error", err)
			metrics.CacheTierErrors.WithLabelValues(tier.Name(), "get").Inc()
			continue
		}
		if !ok {
			continue
		}
		if entry.Expired(now) {
			if err := tier.Delete(ctx, key); err != nil {
				metrics.CacheTierErrors.WithLabelValues(tier.Name(), "delete").Inc()
			}
			continue
		}

		c.promote(ctx, key, entry, i)
		metrics.CacheHits.WithLabelValues(tier.Name()).Inc()
		return entry.Value, true
	}

	metrics.CacheMisses.Inc()
	return nil, false
}

// promote writes an entry found in tier index src into every faster tier.
func (c *Tiered) promote(ctx context.Context, key string, entry Entry, src int) {
	for _, tier := range c.tiers[:src] {
		if err := tier.Set(ctx, key, entry); err != nil {
			logging.FromContext(ctx).Warn("cache promotion failed",
				"tier", tier.Name(), "error", err)
			metrics.CacheTierErrors.WithLabelValues(tier.Name(), "set").Inc()
		}
	}
}

// Set stores value under key in every tier with the given TTL (the default
// TTL when ttl is zero; a negative ttl yields an entry that is already
// expired). Writes are not transactional: partial success across tiers
// stands. The return value is false only when the value could not be
// serialized, the memory write failed, or a configured Redis tier rejected
// the write; file-tier failures are logged and ignored, that tier being
// best-effort durability only.
func (c *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).Warn("cache value not serializable", "error", err)
		return false
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	entry := Entry{Value: raw, ExpiresAt: time.Now().Add(ttl)}

	ok := true
	for _, tier := range c.tiers {
		if err := tier.Set(ctx, key, entry); err != nil {
			logging.FromContext(ctx).Warn("cache tier write failed",
				"tier", tier.Name(), "error", err)
			metrics.CacheTierErrors.WithLabelValues(tier.Name(), "set").Inc()
			if tier.Name() != "file" {
				ok = false
			}
		}
	}
	return ok
}

// Delete removes key from every tier, tolerating per-tier failure.
func (c *Tiered) Delete(ctx context.Context, key string) {
	for _, tier := range c.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).Warn("cache tier delete failed",
				"tier", tier.Name(), "error", err)
			metrics.CacheTierErrors.WithLabelValues(tier.Name(), "delete").Inc()
		}
	}
}

// Clear empties every tier, tolerating per-tier failure.
func (c *Tiered) Clear(ctx context.Context) {
	for _, tier := range c.tiers {
		if err := tier.Clear(ctx); err != nil {
			logging.FromContext(ctx).Warn("cache tier clear failed",
				"tier", tier.Name(), "error", err)
			metrics.CacheTierErrors.WithLabelValues(tier.Name(), "clear").Inc()
		}
	}
}

// Health reports per-tier reachability and the in-process entry count.
type Health struct {
	Tiers         map[string]bool `json:"tiers"`
	MemoryEntries int             `json:"memory_entries"`
}

// HealthCheck pings every tier. It never mutates cache state.
func (c *Tiered) HealthCheck(ctx context.Context) Health {
	h := Health{Tiers: make(map[string]bool, len(c.tiers))}
	for _, tier := range c.tiers {
		h.Tiers[tier.Name()] = tier.Ping(ctx) == nil
	}
	h.MemoryEntries = c.memory.Len()
	return h
}
