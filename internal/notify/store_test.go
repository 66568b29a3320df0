package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-service/internal/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "sess-1", time.Hour), mr
}

func TestRedisStoreRecordLoadReset(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Record(ctx, "a"))
	require.NoError(t, store.Record(ctx, "b"))
	require.NoError(t, store.Record(ctx, "a"))

	ids, err := store.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
	assert.Equal(t, time.Hour, mr.TTL("notify:displayed:sess-1"))

	require.NoError(t, store.Reset(ctx))
	ids, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Record(ctx, "a"))
	mr.FastForward(2 * time.Hour)

	ids, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStoreSoundPreference(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	assert.True(t, store.SoundEnabled(ctx))
	require.NoError(t, store.SetSoundEnabled(ctx, false))
	assert.False(t, store.SoundEnabled(ctx))
	require.NoError(t, store.SetSoundEnabled(ctx, true))
	assert.True(t, store.SoundEnabled(ctx))
}

func TestLedgerBackedByRedisSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	l := NewLedger(ctx, nil, store, nil)
	assert.True(t, l.ShouldDisplay(ctx, models.Notification{ID: "n-1"}))

	restarted := NewLedger(ctx, nil, store, nil)
	assert.False(t, restarted.ShouldDisplay(ctx, models.Notification{ID: "n-1"}))
}
