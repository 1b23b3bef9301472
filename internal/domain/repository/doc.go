// Package repository define los contratos de persistencia del dominio de identidad.
//
// Dos superficies, con privilegios distintos:
//
//	CredentialStore      sin identidad de caller (registro y login). Único lugar
//	                     donde viajan salt y digest.
//	PrincipalRepository  siempre recibe tenantID y filtra por él. Solo se usa a
//	                     través de un scope.Handle.
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Las búsquedas de una fila devuelven (valor, found, err): "no encontrado" no es error.
//   - Los errores de store se traducen a ErrConflict o ErrStoreUnavailable.
package repository
