package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheCreation(t *testing.T) {
	t.Parallel()

	c := NewCache[string]("test")

	assert.NotNil(t, c.Mutex)
	assert.NotNil(t, c.Cache)
	assert.Equal(t, 0, c.Len())
}

func TestCacheOperation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewCache[string]("test")

	value, found := c.Get(ctx, "potato")

	assert.False(t, found)
	assert.Empty(t, value)

	c.Put(ctx, "potato", "carrot")
	value, found = c.Get(ctx, "potato")

	assert.True(t, found)
	assert.Equal(t, "carrot", value)
}

func TestCacheSnapshotIsDetached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewCache[string]("test")
	c.Put(ctx, "a", "1")

	snapshot := c.Snapshot()
	c.Put(ctx, "b", "2")

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, c.Len())
}
