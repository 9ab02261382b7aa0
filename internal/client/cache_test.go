package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	countKey = NewKey[int]("count")
	namesKey = NewKey[[]string]("names")
)

func TestCache_GetSetInvalidate(t *testing.T) {
	c := NewCache()
	_, ok := Get(c, countKey)
	assert.False(t, ok)
	assert.True(t, c.IsStale(countKey))

	Set(c, countKey, 3)
	v, ok := Get(c, countKey)
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, c.IsStale(countKey))

	c.Invalidate(countKey, namesKey)
	v, ok = Get(c, countKey)
	assert.True(t, ok, "invalidated values stay readable")
	assert.Equal(t, 3, v)
	assert.True(t, c.IsStale(countKey))
}

func TestCache_SnapshotRestore(t *testing.T) {
	c := NewCache()
	Set(c, countKey, 1)
	snap := c.Snapshot(countKey, namesKey)

	Set(c, countKey, 2)
	Set(c, namesKey, []string{"x"})
	c.Restore(snap)

	v, _ := Get(c, countKey)
	assert.Equal(t, 1, v)
	_, ok := Get(c, namesKey)
	assert.False(t, ok, "keys absent at snapshot time are removed again")
}

func TestFetch(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	}

	v, err := Fetch(ctx, c, countKey, load)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = Fetch(ctx, c, countKey, load)
	require.NoError(t, err)
	assert.Equal(t, 10, v, "fresh values are served from cache")
	assert.Equal(t, 1, calls)

	c.Invalidate(countKey)
	v, err = Fetch(ctx, c, countKey, load)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	c.Invalidate(countKey)
	v, err = Fetch(ctx, c, countKey, func(context.Context) (int, error) { return 0, errors.New("offline") })
	assert.Error(t, err)
	assert.Equal(t, 20, v, "a failed load keeps the previous value")
	assert.True(t, c.IsStale(countKey))
}
