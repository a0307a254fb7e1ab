package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetperto/providersearch/internal/model"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	coord := model.Coordinate{Lat: -23.55, Lng: -46.63}

	c.Set(context.Background(), "pinheiros", coord)

	got, ok := c.Get(context.Background(), "pinheiros")
	require.True(t, ok)
	assert.Equal(t, coord, *got)

	_, ok = c.Get(context.Background(), "moema")
	assert.False(t, ok)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set(context.Background(), "pinheiros", model.Coordinate{Lat: 1, Lng: 2})

	_, ok := c.Get(context.Background(), "pinheiros")
	require.True(t, ok)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, ok = c.Get(context.Background(), "pinheiros")
	assert.False(t, ok, "entries past the TTL must read as misses")
}

func TestMemoryCache_LazyPurgeOnWrite(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set(context.Background(), "stale", model.Coordinate{Lat: 1, Lng: 2})

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	c.Set(context.Background(), "fresh", model.Coordinate{Lat: 3, Lng: 4})

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.entries, 1, "expired entries are swept on write")
	_, kept := c.entries["fresh"]
	assert.True(t, kept)
}
