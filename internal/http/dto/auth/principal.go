package auth

import (
	"time"

	"github.com/Juara-1/warung-backend/internal/domain/repository"
)

// Principal es la única forma en que un principal sale por HTTP. No tiene
// campos de credencial.
type Principal struct {
	ID          string    `json:"id"`
	LoginHandle string    `json:"loginHandle"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromPrincipal(p repository.Principal) Principal {
	return Principal{
		ID:          p.ID,
		LoginHandle: p.LoginHandle,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
