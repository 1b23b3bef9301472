package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskHandle(t *testing.T) {
	cases := map[string]string{
		"alice@x":   "al***@x",
		"bo@warung": "***@warung",
		"kasir01":   "ka***",
		"":          "***",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskHandle(in), in)
	}
}

func TestFrom_FallsBackToSingleton(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("hello")
	assert.Equal(t, 1, logs.Len())

	scoped := zap.New(core).With(RequestID("r-1"))
	From(ToContext(context.Background(), scoped)).Info("scoped")
	entries := logs.FilterMessage("scoped").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "r-1", entries[0].ContextMap()["request_id"])
	}
}
