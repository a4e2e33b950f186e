package core

import "errors"

var (
	// ErrNotFound indica que no existe fila para el filtro dado.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict indica violación de unicidad (p.ej. email duplicado).
	ErrConflict = errors.New("store: conflict")

	// ErrUnavailable indica un fallo de infraestructura del store.
	// Es retryable; nunca debe interpretarse como "no match".
	ErrUnavailable = errors.New("store: unavailable")
)
