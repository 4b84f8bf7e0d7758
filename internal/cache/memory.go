package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a bounded in-process cache. Entries past their TTL are
// treated as absent and purged on access or on Set; once full, the least
// recently used entry is evicted.
type Memory[T any] struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	hits       int64
	misses     int64
	now        func() time.Time
}

type memoryItem[T any] struct {
	key   string
	entry Entry[T]
}

// NewMemory creates a memory tier. Non-positive arguments take defaults.
func NewMemory[T any](maxSize int, defaultTTL time.Duration) *Memory[T] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Memory[T]{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	el, ok := m.items[key]
	if !ok {
		m.misses++
		return zero, false, nil
	}
	it := el.Value.(*memoryItem[T])
	now := m.now()
	if it.entry.Expired(now) {
		m.removeElement(el)
		m.misses++
		return zero, false, nil
	}
	it.entry.AccessCount++
	it.entry.LastAccessed = now
	m.order.MoveToFront(el)
	m.hits++
	return it.entry.Data, true, nil
}

func (m *Memory[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value, ttl)
	return nil
}

func (m *Memory[T]) set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := m.now()
	m.purgeExpired(now)

	entry := Entry[T]{Data: value, Timestamp: now, LastAccessed: now, TTL: ttl}
	if el, ok := m.items[key]; ok {
		el.Value.(*memoryItem[T]).entry = entry
		m.order.MoveToFront(el)
		return
	}
	for len(m.items) >= m.maxSize {
		m.removeElement(m.order.Back())
	}
	m.items[key] = m.order.PushFront(&memoryItem[T]{key: key, entry: entry})
}

// Has reports whether key is present and live without touching LRU order.
func (m *Memory[T]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return false, nil
	}
	if el.Value.(*memoryItem[T]).entry.Expired(m.now()) {
		m.removeElement(el)
		return false, nil
	}
	return true, nil
}

func (m *Memory[T]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
	m.hits, m.misses = 0, 0
	return nil
}

func (m *Memory[T]) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Size: len(m.items), MaxSize: m.maxSize, Hits: m.hits, Misses: m.misses}, nil
}

// Snapshot returns the live values keyed by cache key.
func (m *Memory[T]) Snapshot() map[string]T {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make(map[string]T, len(m.items))
	for k, el := range m.items {
		it := el.Value.(*memoryItem[T])
		if !it.entry.Expired(now) {
			out[k] = it.entry.Data
		}
	}
	return out
}

// Restore loads values with the default TTL, keeping existing entries.
func (m *Memory[T]) Restore(values map[string]T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.set(k, v, m.defaultTTL)
	}
}

func (m *Memory[T]) purgeExpired(now time.Time) {
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryItem[T]).entry.Expired(now) {
			m.removeElement(el)
		}
		el = prev
	}
}

func (m *Memory[T]) removeElement(el *list.Element) {
	it := m.order.Remove(el).(*memoryItem[T])
	delete(m.items, it.key)
}
