package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-viewer/internal/config"
	"gallery-viewer/internal/testutils"
)

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(config.RedisConfig{
		Address:     "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		PoolSize:    1,
	}, time.Hour)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	rc := testutils.SetupRedis(t)
	s := NewRedisStoreFromClient(rc.Client, time.Hour)
	ctx := context.Background()

	t.Run("load missing snapshot", func(t *testing.T) {
		_, err := s.Load(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		want := testSnapshot()
		require.NoError(t, s.Save(ctx, "viewer-1", want))

		got, err := s.Load(ctx, "viewer-1")
		require.NoError(t, err)
		assert.Equal(t, want.Settings, got.Settings)
		assert.Equal(t, want.Cursor, got.Cursor)
		assert.Equal(t, want.Generation, got.Generation)
		require.Len(t, got.Images, 2)
		assert.Equal(t, "b.jpg", got.Images[0].Name)
		assert.True(t, want.Images[0].ModDate.Equal(got.Images[0].ModDate))
	})

	t.Run("key carries TTL", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "viewer-2", testSnapshot()))

		ttl, err := s.client.TTL(ctx, sessionKey("viewer-2")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)
		assert.LessOrEqual(t, ttl, time.Hour)

		keys, err := rc.Client.Keys(ctx, keyPrefix+"*").Result()
		require.NoError(t, err)
		assert.Contains(t, keys, "viewer:session:viewer-2")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "viewer-3", testSnapshot()))
		require.NoError(t, s.Delete(ctx, "viewer-3"))
		assert.ErrorIs(t, s.Delete(ctx, "viewer-3"), ErrNotFound)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, s.Health(ctx))
	})
}
