package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key   string
	entry Entry
}

// Memory is the in-process tier: a thread-safe LRU map bounded at capacity
// entries. Expiry is carried per entry; an expired entry found during Get is
// removed and reported as a miss. Memory operations never fail, so every
// method returns a nil error.
type Memory struct {
	mu        sync.Mutex
	capacity  int
	items     map[string]*list.Element
	evictList *list.List
}

// NewMemory creates an in-process tier holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	return &Memory{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Name identifies the tier in logs, metrics, and health reports.
func (m *Memory) Name() string { return "memory" }

// Get returns the entry for key, or false if missing or expired. A hit
// refreshes the entry's LRU position.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return Entry{}, false, nil
	}

	me := elem.Value.(*memoryEntry)
	if me.entry.Expired(time.Now()) {
		m.removeElement(elem)
		return Entry{}, false, nil
	}

	m.evictList.MoveToFront(elem)
	return me.entry, true, nil
}

// Set stores entry under key, evicting the least-recently-used entry first
// when the tier is at capacity.
func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.evictList.MoveToFront(elem)
		elem.Value.(*memoryEntry).entry = entry
		return nil
	}

	if m.evictList.Len() >= m.capacity {
		m.removeOldest()
	}

	elem := m.evictList.PushFront(&memoryEntry{key: key, entry: entry})
	m.items[key] = elem
	return nil
}

// Delete removes an entry from the tier.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	return nil
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.evictList.Init()
	return nil
}

// Ping always succeeds; the in-process tier has no external dependency.
func (m *Memory) Ping(_ context.Context) error { return nil }

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictList.Len()
}

func (m *Memory) removeOldest() {
	if elem := m.evictList.Back(); elem != nil {
		m.removeElement(elem)
	}
}

func (m *Memory) removeElement(elem *list.Element) {
	m.evictList.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}
