package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/Juara-1/warung-backend/internal/http/errors"
)

const MaxBodySize = 64 * 1024

// ReadJSON valida Content-Type, limita el body y decodifica en v. Campos
// desconocidos se ignoran. Si falla, ya escribió el error y retorna false.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		httperrors.WriteError(w, httperrors.ErrUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		case errors.Is(err, io.EOF):
			httperrors.WriteError(w, httperrors.ErrMissingFields)
		default:
			httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		}
		return false
	}
	return true
}

// WriteJSON escribe v con status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
