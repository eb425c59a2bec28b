package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisStorage_RoundTripWithPrefixAndDefaultTTL(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	storage := NewRedisStorage(client)

	require.NoError(t, storage.Set(ctx, "GET:https://example.com", sampleResponse(), 0))

	assert.True(t, server.Exists("etag:cache:GET:https://example.com"))
	assert.Equal(t, time.Hour, server.TTL("etag:cache:GET:https://example.com"))

	got, err := storage.Get(ctx, "GET:https://example.com")
	require.NoError(t, err)
	assert.Equal(t, sampleResponse(), got)
}

func TestRedisStorage_CustomTTLAndExpiry(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	storage := NewRedisStorage(client, WithKeyPrefix("test:"), WithDefaultTTL(time.Minute))

	require.NoError(t, storage.Set(ctx, "k", sampleResponse(), 10*time.Second))
	assert.Equal(t, 10*time.Second, server.TTL("test:k"))

	server.FastForward(11 * time.Second)
	got, err := storage.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorage_CorruptEntryIsDeleted(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	storage := NewRedisStorage(client)
	require.NoError(t, server.Set("etag:cache:broken", "{not json"))

	got, err := storage.Get(ctx, "broken")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, server.Exists("etag:cache:broken"))
}

func TestRedisStorage_Delete(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	storage := NewRedisStorage(client)
	require.NoError(t, storage.Set(ctx, "k", sampleResponse(), 0))

	require.NoError(t, storage.Delete(ctx, "k"))
	assert.False(t, server.Exists("etag:cache:k"))
}

func TestJobLock_AcquireOncePerInterval(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	lock := NewJobLock(client)

	ok, err := lock.Acquire(ctx, "videos:check", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "videos:check", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	server.FastForward(time.Minute)
	ok, err = lock.Acquire(ctx, "videos:check", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSyncMarker(t *testing.T) {
	ctx := context.Background()
	server, client := newRedis(t)
	marker := NewSyncMarker(client)

	last, err := marker.LastVideoSync(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, marker.MarkVideoSync(ctx, at))
	assert.True(t, server.Exists("last_video_sync"))

	last, err = marker.LastVideoSync(ctx)
	require.NoError(t, err)
	assert.True(t, at.Equal(last))
}
