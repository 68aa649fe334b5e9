package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", "v", time.Minute)
	val, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Now()
	c.nowFunc = func() time.Time { return now }
	c.Set(ctx, "k", "v", time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	c.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheNoTTL(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Now()
	c.nowFunc = func() time.Time { return now }
	c.Set(ctx, "k", "v", 0)

	c.nowFunc = func() time.Time { return now.Add(24 * 365 * time.Hour) }
	val, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", "first", time.Minute)
	c.Set(ctx, "k", "second", time.Minute)
	val, _ := c.Get(ctx, "k")
	assert.Equal(t, "second", val)
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "a", "1", time.Minute)
	c.Set(ctx, "b", "2", 0)
	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)

	// The cache stays usable after a clear.
	c.Set(ctx, "a", "3", time.Minute)
	val, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "3", val)
}

func TestNewFallsBackWithoutURL(t *testing.T) {
	c := New(context.Background(), "")
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}
