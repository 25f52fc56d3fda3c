package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsView struct {
	Total int    `json:"total"`
	Value string `json:"value"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute, nil), srv
}

func TestKeyLayout(t *testing.T) {
	org := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "deals:11111111-1111-1111-1111-111111111111:stats", Key("deals", org, "stats"))
	assert.Equal(t, "deals:11111111-1111-1111-1111-111111111111:list:*", Key("deals", org, "list", "*"))
}

func TestSetThenGet(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "deals:a:stats", statsView{Total: 3, Value: "150.00"}))

	var got statsView
	hit, err := c.Get(ctx, "deals:a:stats", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, statsView{Total: 3, Value: "150.00"}, got)

	srv.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, "deals:a:stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)
	var got statsView
	hit, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetCorruptPayloadIsMiss(t *testing.T) {
	c, srv := newTestCache(t)
	require.NoError(t, srv.Set("deals:a:stats", "{not json"))

	var got statsView
	hit, err := c.Get(context.Background(), "deals:a:stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, srv.Exists("deals:a:stats"))
}

func TestInvalidateExactAndPattern(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"deals:a:stats", "deals:a:list:p1", "deals:a:list:p2", "deals:b:list:p1"} {
		require.NoError(t, c.Set(ctx, key, statsView{Total: 1}))
	}

	require.NoError(t, c.Invalidate(ctx, "deals:a:stats", "deals:a:list:*"))

	assert.False(t, srv.Exists("deals:a:stats"))
	assert.False(t, srv.Exists("deals:a:list:p1"))
	assert.False(t, srv.Exists("deals:a:list:p2"))
	assert.True(t, srv.Exists("deals:b:list:p1"))
}

func TestInvalidateNothingMatched(t *testing.T) {
	c, _ := newTestCache(t)
	require.NoError(t, c.Invalidate(context.Background(), "deals:z:list:*"))
}

func TestSetIfCurrentSkipsAfterBump(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()
	scope := Scope("deals", uuid.New())
	key := scope + ":stats"

	loadedAt, err := c.Version(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loadedAt)

	require.NoError(t, c.Bump(ctx, scope))

	stored, err := c.SetIfCurrent(ctx, scope, loadedAt, key, statsView{Total: 1})
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, srv.Exists(key))

	current, err := c.Version(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)

	stored, err = c.SetIfCurrent(ctx, scope, current, key, statsView{Total: 2})
	require.NoError(t, err)
	assert.True(t, stored)

	var got statsView
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, got.Total)
	assert.Greater(t, srv.TTL(key), time.Duration(0))
}

func TestVersionKeyIsOutsidePatterns(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()
	scope := Scope("deals", uuid.New())

	require.NoError(t, c.Bump(ctx, scope))
	require.NoError(t, c.Invalidate(ctx, scope+":list:*", scope+":opportunities:*"))
	assert.True(t, srv.Exists(scope+":version"))
}
