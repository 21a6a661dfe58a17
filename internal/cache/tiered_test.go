package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// brokenTier fails every operation, standing in for an unreachable Redis.
type brokenTier struct{}

func (brokenTier) Name() string { return "redis" }

func (brokenTier) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("connection refused")
}

func (brokenTier) Set(context.Context, string, Entry) error { return errors.New("connection refused") }

func (brokenTier) Delete(context.Context, string) error { return errors.New("connection refused") }

func (brokenTier) Clear(context.Context) error { return errors.New("connection refused") }

func (brokenTier) Ping(context.Context) error { return errors.New("connection refused") }

func TestTiered_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewWithTiers(NewMemory(10), time.Minute)

	if !c.Set(ctx, "k", map[string]int{"n": 42}, 0) {
		t.Fatal("expected set to succeed")
	}
	raw, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(raw) != `{"n":42}` {
		t.Errorf("unexpected cached value: %s", raw)
	}
}

func TestTiered_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewWithTiers(NewMemory(10), time.Minute)

	c.Set(ctx, "k", "v", -time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss for entry with past TTL")
	}
}

func TestTiered_PromotionFromFileTier(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(10)
	ft := newFileTier(t)
	c := NewWithTiers(mem, time.Minute, ft)

	// Seed the file tier directly, simulating a cold-start memory tier.
	if err := ft.Set(ctx, "k", entryIn(time.Minute, "warm")); err != nil {
		t.Fatal(err)
	}

	raw, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit from file tier")
	}
	if string(raw) != `"warm"` {
		t.Errorf("unexpected value: %s", raw)
	}

	// The hit must have been promoted into memory.
	if _, ok, _ := mem.Get(ctx, "k"); !ok {
		t.Error("expected entry to be promoted into the memory tier")
	}
}

func TestTiered_FailOpen(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(10)
	ft := newFileTier(t)
	c := NewWithTiers(mem, time.Minute, brokenTier{}, ft)

	// Set reports failure because the broken tier is correctness-relevant,
	// but the surviving tiers still hold the value.
	if c.Set(ctx, "k", "v", 0) {
		t.Error("expected set to report the failed external tier")
	}
	raw, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit despite broken external tier")
	}
	if string(raw) != `"v"` {
		t.Errorf("unexpected value: %s", raw)
	}

	// Delete and Clear must not panic or propagate the tier error.
	c.Delete(ctx, "k")
	c.Clear(ctx)
}

func TestTiered_FileTierFailureDoesNotFailSet(t *testing.T) {
	ctx := context.Background()
	ft := newFileTier(t)
	// Make the directory unusable after construction.
	ft.dir = ft.dir + "-missing"

	c := NewWithTiers(NewMemory(10), time.Minute, ft)
	if !c.Set(ctx, "k", "v", 0) {
		t.Error("file-tier failure must not fail the set")
	}
}

func TestTiered_LRUSpillRecoverableFromFile(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(2)
	ft := newFileTier(t)
	c := NewWithTiers(mem, time.Minute, ft)

	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)
	if _, ok, _ := mem.Get(ctx, "a"); !ok {
		t.Fatal("expected 'a' in memory")
	}
	c.Set(ctx, "c", 3, 0) // evicts "b" from memory; still on disk

	if _, ok, _ := mem.Get(ctx, "b"); ok {
		t.Error("expected 'b' to be evicted from the memory tier")
	}
	if _, ok := c.Get(ctx, "b"); !ok {
		t.Error("expected 'b' to be served from the file tier")
	}
}

func TestTiered_DeleteRemovesAllTiers(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(10)
	ft := newFileTier(t)
	c := NewWithTiers(mem, time.Minute, ft)

	c.Set(ctx, "k", "v", 0)
	c.Delete(ctx, "k")

	if _, ok, _ := mem.Get(ctx, "k"); ok {
		t.Error("expected memory tier delete")
	}
	if _, ok, _ := ft.Get(ctx, "k"); ok {
		t.Error("expected file tier delete")
	}
}

func TestTiered_HealthCheck(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(10)
	c := NewWithTiers(mem, time.Minute, brokenTier{})
	c.Set(ctx, "k", "v", 0)

	h := c.HealthCheck(ctx)
	if !h.Tiers["memory"] {
		t.Error("expected memory tier to be reachable")
	}
	if h.Tiers["redis"] {
		t.Error("expected broken tier to be reported unreachable")
	}
	if h.MemoryEntries != 1 {
		t.Errorf("expected 1 memory entry, got %d", h.MemoryEntries)
	}
}
