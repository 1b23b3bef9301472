package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

// Sink recibe eventos del dispatcher. Deliver respeta el deadline de ctx.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

type funcSink struct {
	name string
	fn   func(context.Context, Event) error
}

func (f funcSink) Name() string                               { return f.name }
func (f funcSink) Deliver(ctx context.Context, e Event) error { return f.fn(ctx, e) }

// SinkFunc adapta una función a Sink.
func SinkFunc(name string, fn func(context.Context, Event) error) Sink {
	return funcSink{name: name, fn: fn}
}

// AuditSink escribe cada evento como línea estructurada de auditoría.
type AuditSink struct {
	log *zap.Logger
}

// NewAuditSink usa l o el logger global si es nil.
func NewAuditSink(l *zap.Logger) *AuditSink {
	if l == nil {
		l = logger.L()
	}
	return &AuditSink{log: l.With(logger.Component("audit"))}
}

func (a *AuditSink) Name() string { return "audit" }

func (a *AuditSink) Deliver(_ context.Context, e Event) error {
	fields := []zap.Field{
		logger.Event(string(e.Type)),
		logger.String("ts", e.At.UTC().Format(time.RFC3339Nano)),
	}
	if e.TenantID != "" {
		fields = append(fields, logger.TenantID(e.TenantID))
	}
	if e.PrincipalID != "" {
		fields = append(fields, logger.PrincipalID(e.PrincipalID))
	}
	for k, v := range e.Attrs {
		fields = append(fields, logger.String(k, v))
	}
	a.log.Info("audit", fields...)
	return nil
}

// RedisStreamSink agrega cada evento a un stream de Redis (XADD).
type RedisStreamSink struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamSink. maxLen > 0 recorta el stream de forma aproximada.
func NewRedisStreamSink(client redis.Cmdable, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (r *RedisStreamSink) Name() string { return "redis_stream" }

func (r *RedisStreamSink) Deliver(ctx context.Context, e Event) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: values(e),
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	return r.client.XAdd(ctx, args).Err()
}

func values(e Event) map[string]interface{} {
	v := map[string]interface{}{
		"type":         string(e.Type),
		"tenant_id":    e.TenantID,
		"principal_id": e.PrincipalID,
		"at":           e.At.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Attrs) > 0 {
		attrs, _ := json.Marshal(e.Attrs)
		v["attrs"] = string(attrs)
	}
	return v
}
