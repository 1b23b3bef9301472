package repository

import "errors"

var (
	// ErrNotFound: lookup de una fila sin resultado (o excluida por política de tenant).
	ErrNotFound = errors.New("not found")

	// ErrConflict: violación de unicidad (ej: login handle duplicado).
	ErrConflict = errors.New("conflict")

	// ErrStoreUnavailable: timeout, conexión caída o cualquier otro fallo del store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
