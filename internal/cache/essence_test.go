package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/store"
	"synapse/internal/types"
)

var sampleEssence = types.Essence{CoreTakeaway: "takeaway", MicroAudience: "audience"}

func newTestEssenceCache() (*EssenceCache, *Durable[types.Essence], *Memory[types.Essence]) {
	durable := NewDurable[types.Essence](store.NewMemoryKV(), time.Hour)
	session := NewMemory[types.Essence](10, time.Hour)
	return NewEssenceCache(durable, session, time.Hour), durable, session
}

func countingLoader(calls *int32, e types.Essence) EssenceLoader {
	return func(context.Context) (types.Essence, error) {
		atomic.AddInt32(calls, 1)
		return e, nil
	}
}

func TestEssenceKey(t *testing.T) {
	assert.Equal(t, "https://a.com::"+Fingerprint("body"), EssenceKey("https://a.com", "body"))
	assert.NotEqual(t, EssenceKey("u", "body"), EssenceKey("u", "bod"), "truncation changes the key")
}

func TestEssenceCache_MissPopulatesBothTiers(t *testing.T) {
	ctx := context.Background()
	c, durable, session := newTestEssenceCache()
	var calls int32

	got, tier, err := c.Lookup(ctx, "https://a.com", "body", countingLoader(&calls, sampleEssence))
	require.NoError(t, err)
	assert.Equal(t, TierLoaded, tier)
	assert.Equal(t, sampleEssence, got)
	assert.EqualValues(t, 1, calls)

	_, ok, _ := durable.Get(ctx, EssenceKey("https://a.com", "body"))
	assert.True(t, ok)
	_, ok, _ = session.Get(ctx, "https://a.com")
	assert.True(t, ok)

	_, tier, err = c.Lookup(ctx, "https://a.com", "body", countingLoader(&calls, sampleEssence))
	require.NoError(t, err)
	assert.Equal(t, TierDurable, tier)
	assert.EqualValues(t, 1, calls, "second lookup served from cache")
}

func TestEssenceCache_DurableHitBackfillsSession(t *testing.T) {
	ctx := context.Background()
	c, durable, session := newTestEssenceCache()
	require.NoError(t, durable.Set(ctx, EssenceKey("u", "text"), sampleEssence, 0))

	_, tier, err := c.Lookup(ctx, "u", "text", func(context.Context) (types.Essence, error) {
		t.Fatal("loader must not run")
		return types.Essence{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, TierDurable, tier)

	has, _ := session.Has(ctx, "u")
	assert.True(t, has)
}

func TestEssenceCache_SessionHitWhenDurableMisses(t *testing.T) {
	ctx := context.Background()
	c, _, session := newTestEssenceCache()
	require.NoError(t, session.Set(ctx, "u", sampleEssence, 0))

	_, tier, err := c.Lookup(ctx, "u", "changed content", func(context.Context) (types.Essence, error) {
		return types.Essence{}, errors.New("unexpected load")
	})
	require.NoError(t, err)
	assert.Equal(t, TierSession, tier)
}

func TestEssenceCache_IncompleteEntriesIgnored(t *testing.T) {
	ctx := context.Background()
	c, durable, _ := newTestEssenceCache()
	require.NoError(t, durable.Set(ctx, EssenceKey("u", "t"), types.Essence{CoreTakeaway: "only half"}, 0))

	var calls int32
	_, tier, err := c.Lookup(ctx, "u", "t", countingLoader(&calls, sampleEssence))
	require.NoError(t, err)
	assert.Equal(t, TierLoaded, tier)
	assert.EqualValues(t, 1, calls)
}

func TestEssenceCache_LoaderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestEssenceCache()
	boom := errors.New("provider down")

	_, _, err := c.Lookup(ctx, "u", "t", func(context.Context) (types.Essence, error) { return types.Essence{}, boom })
	assert.ErrorIs(t, err, boom)

	var calls int32
	_, tier, err := c.Lookup(ctx, "u", "t", countingLoader(&calls, sampleEssence))
	require.NoError(t, err)
	assert.Equal(t, TierLoaded, tier)
}

func TestEssenceCache_ConcurrentMissesShareLoad(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestEssenceCache()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (types.Essence, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return sampleEssence, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := c.Lookup(ctx, "u", "t", loader)
			assert.NoError(t, err)
			assert.Equal(t, sampleEssence, got)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestEssenceCache_SessionFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	c, _, _ := newTestEssenceCache()
	_, _, err := c.Lookup(ctx, "https://a.com", "t", countingLoader(new(int32), sampleEssence))
	require.NoError(t, err)
	require.NoError(t, c.SaveSessionFile(path))

	fresh := NewEssenceCache(nil, nil, time.Hour)
	require.NoError(t, fresh.LoadSessionFile(path))
	_, tier, err := fresh.Lookup(ctx, "https://a.com", "other", func(context.Context) (types.Essence, error) {
		return types.Essence{}, errors.New("unexpected load")
	})
	require.NoError(t, err)
	assert.Equal(t, TierSession, tier)

	assert.NoError(t, fresh.LoadSessionFile(filepath.Join(t.TempDir(), "missing.json")))
}

func TestEssenceCache_ImportSessionLayout(t *testing.T) {
	c := NewEssenceCache(nil, nil, 0)
	data := []byte(`{
		"https://a.com": {"coreTakeaway": "x", "microAudience": "y"},
		"https://b.com": {"coreTakeaway": "", "microAudience": "y"}
	}`)
	require.NoError(t, c.ImportSession(data))

	_, session, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, session.Size)

	assert.Error(t, c.ImportSession([]byte("[")))
}
