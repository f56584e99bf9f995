package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend(time.Minute)

	_, err := b.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSlot)

	data := []byte("sealed")
	require.NoError(t, b.Save(ctx, "id", data, time.Minute))
	data[0] = 'X'

	got, err := b.Load(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed"), got)

	require.NoError(t, b.Delete(ctx, "id"))
	_, err = b.Load(ctx, "id")
	assert.ErrorIs(t, err, ErrNoSlot)
	assert.NoError(t, b.Ping(ctx))
}

func TestNewRedisBackendBadURL(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), RedisConfig{URL: "not-a-url"})
	assert.Error(t, err)
}

func TestRedisBackendUnreachable(t *testing.T) {
	b := newRedisBackend(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer b.Close()
	ctx := context.Background()

	_, err := b.Load(ctx, "id")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSlot)
	assert.Error(t, b.Save(ctx, "id", []byte("x"), time.Minute))
	assert.Error(t, b.Ping(ctx))
	assert.Equal(t, "redis", b.Name())
}
