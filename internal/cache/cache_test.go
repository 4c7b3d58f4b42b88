package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestAside_LoadsOnceThenServesFromCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	loads := 0
	load := func(dest *cachedThing) func() error {
		return func() error {
			loads++
			dest.Name = "loaded"
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, c.Aside(ctx, "thing:1", &first, time.Minute, load(&first)))
	assert.Equal(t, "loaded", first.Name)
	assert.True(t, mr.Exists("thing:1"))

	var second cachedThing
	require.NoError(t, c.Aside(ctx, "thing:1", &second, time.Minute, load(&second)))
	assert.Equal(t, "loaded", second.Name)
	assert.Equal(t, 1, loads)

	c.Invalidate(ctx, "thing:1")
	assert.False(t, mr.Exists("thing:1"))
}

func TestAside_LoadErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)

	var dest cachedThing
	err := c.Aside(context.Background(), "thing:2", &dest, time.Minute, func() error {
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("thing:2"))
}

func TestAside_NilCacheCallsLoad(t *testing.T) {
	var c *Cache
	called := false
	err := c.Aside(context.Background(), "k", &cachedThing{}, time.Minute, func() error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
	c.InvalidateUser(context.Background(), 1)
}

func TestNewClient_ParsesURL(t *testing.T) {
	client, err := NewClient("redis://localhost:6380/2")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}

func TestInitRedis_UnavailableReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	assert.Nil(t, InitRedis(context.Background(), addr))
}

var _ redis.Hook = metricsHook{}
