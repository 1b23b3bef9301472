package logger

import (
	"strings"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// =================================================================================
// IDENTIDAD
// =================================================================================

// TenantID crea un campo para el tenant (igual al principal en este modelo).
func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

// PrincipalID crea un campo para el id del principal.
func PrincipalID(v string) zap.Field { return zap.String("principal_id", v) }

// Handle crea un campo con el login handle enmascarado: "alice@x" -> "al***@x".
func Handle(v string) zap.Field { return zap.String("login_handle", MaskHandle(v)) }

// MaskHandle deja visibles los dos primeros caracteres y el dominio (si lo hay).
func MaskHandle(v string) string {
	local, domain, hasAt := strings.Cut(v, "@")
	r := []rune(local)
	if len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}
	if hasAt {
		return local + "@" + domain
	}
	return local
}

// Reason crea un campo con el motivo interno de un rechazo (nunca se expone al cliente).
func Reason(v string) zap.Field { return zap.String("reason", v) }

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Event(v string) zap.Field     { return zap.String("event", v) }
func Sink(v string) zap.Field      { return zap.String("sink", v) }
func Attempt(v int) zap.Field      { return zap.Int("attempt", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
