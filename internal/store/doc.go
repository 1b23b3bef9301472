// Package store agrupa los adapters de persistencia (pg, memory) y la política
// de resiliencia común: timeout por llamada, reintentos acotados con backoff para
// errores transitorios y traducción a repository.ErrStoreUnavailable.
package store
