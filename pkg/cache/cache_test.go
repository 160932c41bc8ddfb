package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string]()
	c.Set("greeting", "hola", time.Minute)

	v, ok := c.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hola", v)
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := New[int]()

	_, ok := c.Get("nope")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(0), stats.Hits)
}

func TestCache_ExpiredEntryIsRemovedOnGet(t *testing.T) {
	c := New[string]()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("k", "v", 5*time.Second)
	require.Equal(t, 1, c.Stats().Size)

	// Jump past the TTL: the read must miss and drop the entry.
	c.now = func() time.Time { return base.Add(6 * time.Second) }

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)

	// A second read is a plain miss, the record is already gone.
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_StatsHitRate(t *testing.T) {
	c := New[string]()
	c.Set("a", "1", time.Minute)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.001)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[int]()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_SweepEvictsExpired(t *testing.T) {
	c := New[string]()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("old", "v", time.Second)
	c.Set("fresh", "v", time.Hour)

	c.now = func() time.Time { return base.Add(time.Minute) }
	c.evictExpired()

	assert.Equal(t, 1, c.Stats().Size)
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}
