// Package provider implementa el cliente del identity provider externo:
// create-or-update idempotente de perfiles sobre su API HTTP.
package provider

import (
	"context"
	"errors"
)

// Errores del provider.
var (
	// ErrNotFound: no existe perfil para el email/id dado.
	ErrNotFound = errors.New("provider: profile not found")

	// ErrUnavailable: fallo de red o 5xx del provider. Retryable.
	ErrUnavailable = errors.New("provider: unavailable")

	// ErrConflict: el provider reporta que el identificador ya existe
	// durante un create. Se recupera internamente cayendo al update path.
	ErrConflict = errors.New("provider: profile already exists")
)

// CustomFields es la bolsa de campos custom del perfil.
type CustomFields struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Company    string `json:"company"`
	CompanyID  string `json:"companyId"`
	MemberType string `json:"memberType"`
	Director   bool   `json:"director"`
}

// Profile es el payload canónico que construyen el signup state machine
// y el reconciliation engine. Password solo se usa en la creación.
type Profile struct {
	Email    string
	Password string
	Custom   CustomFields
}

// RemoteProfile es la representación que devuelve el provider.
type RemoteProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// API son las operaciones contra el identity provider. Este paquete es
// el único escritor de estado del provider.
type API interface {
	// FindByEmail busca un perfil por email. ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*RemoteProfile, error)

	// CreateOrUpdate hace lookup por email y luego actúa: si el perfil
	// existe, update de campos (nunca re-manda password) y retorna el id
	// existente; si no, create con password y retorna el id nuevo.
	// created indica qué camino se tomó. La secuencia lookup-then-act
	// no es transaccional: un 409 del create se recupera re-buscando y
	// actualizando.
	CreateOrUpdate(ctx context.Context, p Profile) (id string, created bool, err error)

	// UpdateCustomFields parchea solo los campos custom dados.
	UpdateCustomFields(ctx context.Context, id string, fields map[string]any) error
}
