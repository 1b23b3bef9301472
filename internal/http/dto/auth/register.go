package auth

// RegisterRequest es el body de POST /v1/auth/register.
type RegisterRequest struct {
	LoginHandle     string `json:"loginHandle"`
	PlaintextSecret string `json:"plaintextSecret"`
	DisplayName     string `json:"displayName"`
}
