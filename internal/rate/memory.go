package rate

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: la misma ventana fija que RedisLimiter, local al proceso.
type MemoryLimiter struct {
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	winStart := now.Truncate(l.window)
	k := key + ":" + strconv.FormatInt(winStart.Unix(), 10)

	// Add falla si ya existe; en ese caso solo incrementamos
	_ = l.c.Add(k, int64(0), l.window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: arranca una ventana nueva
		l.c.Set(k, int64(1), l.window)
		hits = 1
	}
	return result(hits, l.max, winStart.Add(l.window).Sub(now)), nil
}
