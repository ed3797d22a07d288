package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemorySessionBackend_RoundTripAndExpiry(t *testing.T) {
	b := NewMemorySessionBackend(time.Hour)
	defer b.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "tok", []byte("payload"), time.Minute))
	data, err := b.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	now = now.Add(time.Minute)
	_, err = b.Load(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, b.Len())
}

func TestMemorySessionBackend_SweepRemovesExpired(t *testing.T) {
	b := NewMemorySessionBackend(time.Hour)
	defer b.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, b.Save(ctx, "long", []byte("b"), time.Hour))
	now = now.Add(time.Minute)
	b.sweep()

	assert.Equal(t, 1, b.Len())
	_, err := b.Load(ctx, "long")
	assert.NoError(t, err)
}

func TestMemorySessionBackend_DeleteIsIdempotent(t *testing.T) {
	b := NewMemorySessionBackend(time.Hour)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "tok", []byte("x"), time.Minute))
	require.NoError(t, b.Delete(ctx, "tok"))
	require.NoError(t, b.Delete(ctx, "tok"))
	_, err := b.Load(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionBackend_LoadReturnsCopy(t *testing.T) {
	b := NewMemorySessionBackend(time.Hour)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "tok", []byte("abc"), time.Minute))
	data, err := b.Load(ctx, "tok")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := b.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemorySessionBackend_CloseStopsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	b := NewMemorySessionBackend(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func newRedisBackend(t *testing.T) (*RedisSessionBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionBackend(client), mr
}

func TestRedisSessionBackend_RoundTrip(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "tok", []byte("payload"), 30*time.Minute))
	assert.True(t, mr.Exists(sessionKeyPrefix+"tok"))
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKeyPrefix+"tok"))

	data, err := b.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, b.Delete(ctx, "tok"))
	require.NoError(t, b.Delete(ctx, "tok"))
	_, err = b.Load(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionBackend_Expiry(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Save(ctx, "tok", []byte("payload"), time.Minute))
	mr.FastForward(time.Minute + time.Second)

	_, err := b.Load(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionBackend_Failure(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()
	mr.SetError("LOADING")

	_, err := b.Load(ctx, "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
	assert.Error(t, b.Save(ctx, "tok", []byte("x"), time.Minute))
	assert.Error(t, b.Ping(ctx))
}
