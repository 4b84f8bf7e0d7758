package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"synapse/internal/logging"
	"synapse/internal/types"
)

// Tier identifies where an essence lookup was satisfied.
type Tier int

const (
	TierLoaded  Tier = iota // cache miss, loader called
	TierDurable             // durable hit
	TierSession             // session hit
)

func (t Tier) String() string {
	switch t {
	case TierDurable:
		return "durable"
	case TierSession:
		return "session"
	default:
		return "loaded"
	}
}

// EssenceKey builds the durable key for a page: its URL plus the
// fingerprint of the text the essence was distilled from. Changing the
// content or the truncation length yields a new key.
func EssenceKey(url, content string) string {
	return url + "::" + Fingerprint(content)
}

// EssenceLoader produces an essence on a cache miss.
type EssenceLoader func(ctx context.Context) (types.Essence, error)

// EssenceCache fronts essence distillation with two tiers: a durable store
// keyed by EssenceKey and a session tier keyed by URL. Lookups try durable,
// then session, then the loader; a durable hit backfills the session tier
// and a loaded value populates both. Concurrent misses on the same key
// share one load.
type EssenceCache struct {
	durable Store[types.Essence]
	session *Memory[types.Essence]
	ttl     time.Duration
	group   singleflight.Group
}

// NewEssenceCache creates the essence cache. durable may be nil, leaving
// only the session tier.
func NewEssenceCache(durable Store[types.Essence], session *Memory[types.Essence], ttl time.Duration) *EssenceCache {
	if session == nil {
		session = NewMemory[types.Essence](DefaultMaxSize, ttl)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EssenceCache{durable: durable, session: session, ttl: ttl}
}

func complete(e types.Essence) bool {
	return e.CoreTakeaway != "" && e.MicroAudience != ""
}

// Lookup returns the essence for url whose truncated text is content.
func (c *EssenceCache) Lookup(ctx context.Context, url, content string, load EssenceLoader) (types.Essence, Tier, error) {
	key := EssenceKey(url, content)

	if c.durable != nil {
		e, ok, err := c.durable.Get(ctx, key)
		if err != nil {
			logging.CacheWarn("Durable lookup failed for %s: %v", url, err)
		} else if ok && complete(e) {
			_ = c.session.Set(ctx, url, e, c.ttl)
			logging.CacheDebug("Durable hit for %s", url)
			return e, TierDurable, nil
		}
	}

	if e, ok, _ := c.session.Get(ctx, url); ok && complete(e) {
		logging.CacheDebug("Session hit for %s", url)
		return e, TierSession, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		e, err := load(ctx)
		if err != nil {
			return types.Essence{}, err
		}
		c.store(ctx, url, key, e)
		return e, nil
	})
	if err != nil {
		return types.Essence{}, TierLoaded, err
	}
	if shared {
		logging.CacheDebug("Shared in-flight load for %s", url)
	}
	return v.(types.Essence), TierLoaded, nil
}

func (c *EssenceCache) store(ctx context.Context, url, key string, e types.Essence) {
	_ = c.session.Set(ctx, url, e, c.ttl)
	if c.durable == nil {
		return
	}
	if err := c.durable.Set(ctx, key, e, c.ttl); err != nil {
		logging.CacheWarn("Durable write failed for %s: %v", url, err)
	}
}

// Stats returns durable and session statistics.
func (c *EssenceCache) Stats(ctx context.Context) (durable, session Stats, err error) {
	session, _ = c.session.Stats(ctx)
	if c.durable != nil {
		durable, err = c.durable.Stats(ctx)
	}
	return durable, session, err
}

// Clear empties both tiers.
func (c *EssenceCache) Clear(ctx context.Context) error {
	_ = c.session.Clear(ctx)
	if c.durable != nil {
		return c.durable.Clear(ctx)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Session snapshot
// -----------------------------------------------------------------------------

// ExportSession renders the session tier as a JSON object keyed by URL.
func (c *EssenceCache) ExportSession() ([]byte, error) {
	return json.MarshalIndent(c.session.Snapshot(), "", "  ")
}

// ImportSession loads a JSON object keyed by URL into the session tier.
// Incomplete essences are ignored.
func (c *EssenceCache) ImportSession(data []byte) error {
	var snap map[string]types.Essence
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse session cache: %w", err)
	}
	for url, e := range snap {
		if !complete(e) {
			delete(snap, url)
		}
	}
	c.session.Restore(snap)
	return nil
}

// LoadSessionFile imports a session snapshot. A missing file is not an error.
func (c *EssenceCache) LoadSessionFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session cache: %w", err)
	}
	return c.ImportSession(data)
}

// SaveSessionFile writes the session snapshot to path.
func (c *EssenceCache) SaveSessionFile(path string) error {
	data, err := c.ExportSession()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create session cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}
