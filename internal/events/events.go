// Package events publica notificaciones de dominio (registro, login, cambios
// de perfil) sin bloquear al caller. Un Dispatcher encola en un buffer acotado
// y un consumidor las entrega a los sinks; si el buffer está lleno el evento se
// descarta y se cuenta.
package events

import "time"

type Type string

const (
	PrincipalRegistered    Type = "principal.registered"
	PrincipalAuthenticated Type = "principal.authenticated"
	AuthenticationFailed   Type = "principal.authentication_failed"
	PrincipalUpdated       Type = "principal.updated"
	SecretChanged          Type = "principal.secret_changed"
)

// Event nunca lleva material de credencial. Attrs es para datos chicos
// (motivo de fallo, campos cambiados).
type Event struct {
	Type        Type
	TenantID    string
	PrincipalID string
	At          time.Time
	Attrs       map[string]string
}

// Publisher es lo que consumen los servicios. Publish no bloquea ni falla.
type Publisher interface {
	Publish(e Event)
}

// Nop descarta todo.
type Nop struct{}

func (Nop) Publish(Event) {}
