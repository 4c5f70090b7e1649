package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisDirtySetClaimKeepsUnreleasedBatch(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	d := NewRedisDirtySet(rdb)

	require.NoError(t, d.Mark(ctx, StatsKey{UserID: "u1", Date: "2024-03-01"}))
	require.NoError(t, d.Mark(ctx, StatsKey{UserID: "u1", Date: "2024-03-01"}))
	require.NoError(t, d.Mark(ctx, StatsKey{UserID: "auth0|x:y", Date: "2024-02-29"}))

	keys, err := d.Claim(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []StatsKey{
		{UserID: "u1", Date: "2024-03-01"},
		{UserID: "auth0|x:y", Date: "2024-02-29"},
	}, keys)
	assert.False(t, mr.Exists(dirtyStatsKey))

	// the run dies before Release; its keys come back with the ones marked since
	require.NoError(t, d.Mark(ctx, StatsKey{UserID: "u2", Date: "2024-03-01"}))
	keys, err = d.Claim(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	require.NoError(t, d.Release(ctx))
	assert.False(t, mr.Exists(dirtyStatsClaimKey))
	keys, err = d.Claim(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisDirtySetSkipsMalformedMembers(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	d := NewRedisDirtySet(rdb)

	_, err := mr.SAdd(dirtyStatsKey, "garbage")
	require.NoError(t, err)
	require.NoError(t, d.Mark(ctx, StatsKey{UserID: "u1", Date: "2024-03-01"}))

	keys, err := d.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StatsKey{{UserID: "u1", Date: "2024-03-01"}}, keys)
}

func TestRedisLockerExcludesAndTimesOut(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, 100*time.Millisecond)

	unlock, err := l.Lock(ctx, "daily_stats:2024-03-01:u1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:daily_stats:2024-03-01:u1"))

	_, err = l.Lock(ctx, "daily_stats:2024-03-01:u1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// another key is independent
	unlockOther, err := l.Lock(ctx, "daily_stats:2024-03-01:u2")
	require.NoError(t, err)
	unlockOther()

	unlock()
	unlock()
	assert.False(t, mr.Exists("lock:daily_stats:2024-03-01:u1"))

	unlock, err = l.Lock(ctx, "daily_stats:2024-03-01:u1")
	require.NoError(t, err)
	unlock()
}

func TestRedisLockerStaleUnlockKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, time.Second)

	stale, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	// the first holder outlives its TTL and someone else takes the key
	mr.FastForward(2 * time.Second)
	fresh, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:k"))

	fresh()
	assert.False(t, mr.Exists("lock:k"))
}

func TestRedisLockerHonoursContext(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedisLocker(rdb, 5*time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
