package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"synapse/internal/cache"
	"synapse/internal/store"
	"synapse/internal/types"
)

// cacheStack is the essence cache wired from settings: a durable tier on
// the configured backend plus a session tier persisted as JSON.
type cacheStack struct {
	kv       store.KV
	durable  *cache.Durable[types.Essence]
	essences *cache.EssenceCache
}

func openCaches() (*cacheStack, error) {
	ttl := settings.GetCacheTTL()

	var kv store.KV
	switch settings.Cache.Backend {
	case "memory":
		kv = store.NewMemoryKV()
	default:
		sq, err := store.OpenSQLiteKV(settings.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open essence cache: %w", err)
		}
		kv = sq
	}

	durable := cache.NewDurable[types.Essence](kv, ttl)
	session := cache.NewMemory[types.Essence](settings.GetCacheMaxEntries(), ttl)
	cs := &cacheStack{
		kv:       kv,
		durable:  durable,
		essences: cache.NewEssenceCache(durable, session, ttl),
	}

	if path := settings.Cache.SessionPath; path != "" {
		if err := cs.essences.LoadSessionFile(path); err != nil {
			logger.Warn("Ignoring unreadable session cache", zap.String("path", path), zap.Error(err))
		}
	}
	return cs, nil
}

// Close persists the session tier and releases the durable backend.
func (c *cacheStack) Close() error {
	if path := settings.Cache.SessionPath; path != "" {
		if err := c.essences.SaveSessionFile(path); err != nil {
			logger.Warn("Failed to save session cache", zap.String("path", path), zap.Error(err))
		}
	}
	return c.kv.Close()
}

// purge drops expired durable entries.
func (c *cacheStack) purge(ctx context.Context) (int64, error) {
	return c.durable.Purge(ctx)
}
