package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	t.Run("ready", func(t *testing.T) {
		got := NewHealthService(Deps{StoreCheck: ok, Version: "v1"}).Check(context.Background())
		assert.Equal(t, "ready", got.Status)
		assert.Equal(t, "ok", got.Components["store"].Status)
		assert.Equal(t, "disabled", got.Components["redis"].Status)
		assert.Equal(t, "v1", got.Version)
	})

	t.Run("store down is unavailable and retryable", func(t *testing.T) {
		got := NewHealthService(Deps{StoreCheck: down, RedisCheck: ok}).Check(context.Background())
		assert.Equal(t, "unavailable", got.Status)
		assert.True(t, got.Retryable)
		assert.NotContains(t, got.Components["store"].Message, "refused")
	})

	t.Run("redis down keeps ready", func(t *testing.T) {
		got := NewHealthService(Deps{StoreCheck: ok, RedisCheck: down}).Check(context.Background())
		assert.Equal(t, "ready", got.Status)
		assert.Equal(t, "error", got.Components["redis"].Status)
	})
}
