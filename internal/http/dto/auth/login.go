package auth

// LoginRequest es el body de POST /v1/auth/login.
type LoginRequest struct {
	LoginHandle     string `json:"loginHandle"`
	PlaintextSecret string `json:"plaintextSecret"`
}

// LoginResponse: token Bearer y el principal autenticado.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresIn int64     `json:"expiresIn"`
	Principal Principal `json:"principal"`
}
