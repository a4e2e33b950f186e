// Package core define las interfaces del record store.
// Los adapters (pg, memory) las implementan; los services solo dependen
// de este paquete.
package core

import (
	"context"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
)

// SignupStore es el acceso a la tabla de signup records.
type SignupStore interface {
	// List retorna todos los records (full scan, orden estable por creación).
	// Los sweeps de reconciliación filtran en memoria sobre este resultado.
	List(ctx context.Context) ([]types.SignupRecord, error)

	// GetByEmail retorna el record con email exacto, o ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*types.SignupRecord, error)

	// GetByEmailAndCode retorna el record que matchea email Y código OTP
	// exactos, o ErrNotFound. Es el predicado compuesto de verificación.
	GetByEmailAndCode(ctx context.Context, email, code string) (*types.SignupRecord, error)

	// Create inserta un record nuevo. El store asigna ID y timestamps.
	// Retorna ErrConflict si ya existe un record con ese email.
	Create(ctx context.Context, rec *types.SignupRecord) (*types.SignupRecord, error)

	// Update aplica un update parcial por ID y retorna el record resultante.
	Update(ctx context.Context, id string, fields Fields) (*types.SignupRecord, error)
}

// DirectoryStore es el acceso read-only a la tabla de referencia
// companyId → memberType.
type DirectoryStore interface {
	// ListByCompanyID retorna las entradas para un companyId en orden de
	// scan estable. Slice vacío significa companyId inválido.
	ListByCompanyID(ctx context.Context, companyID string) ([]types.DirectoryEntry, error)
}

// MemberProfileStore es el acceso a la tabla denormalizada de membresía.
type MemberProfileStore interface {
	// Upsert crea o reemplaza el resumen por email, refrescando UpdatedAt.
	Upsert(ctx context.Context, p *types.MemberProfile) error

	// GetByEmail retorna el resumen o ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*types.MemberProfile, error)
}

// Store agrupa las tres tablas lógicas mas el health check.
type Store interface {
	Ping(ctx context.Context) error
	Signups() SignupStore
	Directory() DirectoryStore
	MemberProfiles() MemberProfileStore
	Close()
}
