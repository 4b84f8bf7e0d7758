package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/store"
	"synapse/internal/types"
)

func TestDurable_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := store.OpenSQLiteKV(filepath.Join(t.TempDir(), "essence.db"))
	require.NoError(t, err)
	defer kv.Close()

	d := NewDurable[types.Essence](kv, time.Hour)
	want := types.Essence{CoreTakeaway: "solar is cheap", MicroAudience: "homeowners"}

	require.NoError(t, d.Set(ctx, "u::1", want, 0))
	got, ok, err := d.Get(ctx, "u::1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	has, err := d.Has(ctx, "u::1")
	require.NoError(t, err)
	assert.True(t, has)

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Size)
	assert.EqualValues(t, 1, stats.Hits)

	require.NoError(t, d.Clear(ctx))
	_, ok, _ = d.Get(ctx, "u::1")
	assert.False(t, ok)
}

func TestDurable_EntryTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	d := NewDurable[string](store.NewMemoryKV(), time.Hour)
	d.now = clock.now

	require.NoError(t, d.Set(ctx, "k", "v", time.Minute))
	_, ok, _ := d.Get(ctx, "k")
	assert.True(t, ok)

	// The backend uses the wall clock, so only the entry TTL check sees
	// the fake advance.
	clock.advance(2 * time.Minute)
	_, ok, _ = d.Get(ctx, "k")
	assert.False(t, ok)
}

func TestDurable_UndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, "k", []byte("not json"), time.Now().Add(time.Hour)))

	d := NewDurable[string](kv, 0)
	_, ok, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, _ := kv.Len(ctx)
	assert.Zero(t, n, "corrupt entry removed")
}
