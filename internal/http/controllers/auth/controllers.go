// Package auth contiene los controllers de registro, login y perfil.
package auth

import svc "github.com/Juara-1/warung-backend/internal/http/services/auth"

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Me       *MeController
	Password *PasswordController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register),
		Login:    NewLoginController(s.Login),
		Me:       NewMeController(s.Profile),
		Password: NewPasswordController(s.Profile),
	}
}
