package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"synapse/internal/logging"
	"synapse/internal/store"
)

// Durable is a cache tier persisted through a store.KV backend. Values are
// stored as JSON-encoded entries.
type Durable[T any] struct {
	kv         store.KV
	defaultTTL time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
	now        func() time.Time
}

// NewDurable wraps kv. A non-positive ttl takes DefaultTTL.
func NewDurable[T any](kv store.KV, defaultTTL time.Duration) *Durable[T] {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Durable[T]{kv: kv, defaultTTL: defaultTTL, now: time.Now}
}

func (d *Durable[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, ok, err := d.kv.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		d.misses.Add(1)
		return zero, false, nil
	}

	var entry Entry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		logging.CacheWarn("Dropping undecodable entry %s: %v", key, err)
		_ = d.kv.Delete(ctx, key)
		d.misses.Add(1)
		return zero, false, nil
	}
	if entry.Expired(d.now()) {
		_ = d.kv.Delete(ctx, key)
		d.misses.Add(1)
		return zero, false, nil
	}
	d.hits.Add(1)
	return entry.Data, true, nil
}

func (d *Durable[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = d.defaultTTL
	}
	now := d.now()
	raw, err := json.Marshal(Entry[T]{Data: value, Timestamp: now, LastAccessed: now, TTL: ttl})
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return d.kv.Put(ctx, key, raw, now.Add(ttl))
}

func (d *Durable[T]) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := d.kv.Get(ctx, key)
	return ok, err
}

func (d *Durable[T]) Clear(ctx context.Context) error {
	d.hits.Store(0)
	d.misses.Store(0)
	return d.kv.Clear(ctx)
}

func (d *Durable[T]) Stats(ctx context.Context) (Stats, error) {
	n, err := d.kv.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Size: n, Hits: d.hits.Load(), Misses: d.misses.Load()}, nil
}

// Purge removes expired entries from the backend.
func (d *Durable[T]) Purge(ctx context.Context) (int64, error) {
	return d.kv.PurgeExpired(ctx)
}
