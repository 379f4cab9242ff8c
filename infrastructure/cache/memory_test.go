package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetAndGet(t *testing.T) {
	c := NewMemory()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 60))

	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestMemory_GetMissing(t *testing.T) {
	c := NewMemory()
	defer c.Close()

	_, ok := c.Get(context.Background(), "missing")

	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	c := NewMemory()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 60))
	require.NoError(t, c.Delete(ctx, "key"))

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestMemory_Clear(t *testing.T) {
	c := NewMemory()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 60))
	require.NoError(t, c.Set(ctx, "b", 2, 60))
	require.NoError(t, c.Clear(ctx))

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemory_OverwriteReplacesValue(t *testing.T) {
	c := NewMemory()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "old", 60))
	require.NoError(t, c.Set(ctx, "key", "new", 60))

	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	c := NewMemory()

	c.Close()
	c.Close()
}
