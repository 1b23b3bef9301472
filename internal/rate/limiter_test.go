package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 10, 0, time.UTC)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "warung:rl:", 2, time.Minute)
	l.now = func() time.Time { return t0 }
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := l.Allow(ctx, "login:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(2-i), res.Remaining)
	}

	res, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(3), res.CurrentHits)
	assert.Equal(t, time.Minute, res.RetryAfter)

	// otra clave no comparte contador
	res, err = l.Allow(ctx, "login:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// ventana siguiente
	l.now = func() time.Time { return t0.Add(time.Minute) }
	res, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisLimiter(client, "", 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return t0 }
	ctx := context.Background()

	res, err := l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 50*time.Second, res.RetryAfter)

	l.now = func() time.Time { return t0.Add(time.Minute) }
	res, err = l.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
