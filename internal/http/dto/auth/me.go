package auth

// UpdateMeRequest es el body de PATCH /v1/me. Campos ausentes no cambian.
type UpdateMeRequest struct {
	DisplayName *string `json:"displayName"`
}

// ChangeSecretRequest es el body de POST /v1/me/password.
type ChangeSecretRequest struct {
	CurrentSecret string `json:"currentSecret"`
	NewSecret     string `json:"newSecret"`
}
