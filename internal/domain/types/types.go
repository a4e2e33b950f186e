// Package types contiene las entidades del dominio de signup/membresía.
package types

import "time"

// VerificationStatus es el estado de verificación OTP de un signup record.
// La transición es monótona: "" → NotVerified → Verified, nunca al revés.
type VerificationStatus string

const (
	VerificationUnset       VerificationStatus = ""
	VerificationNotVerified VerificationStatus = "NotVerified"
	VerificationVerified    VerificationStatus = "Verified"
)

// SyncStatus es el estado de convergencia contra el identity provider.
// Independiente de VerificationStatus.
type SyncStatus string

const (
	SyncUnset     SyncStatus = ""
	SyncPending   SyncStatus = "pending"
	SyncConverged SyncStatus = "converged"
)

// SignupRecord es la fila system-of-record de un usuario prospecto.
// Invariantes:
//   - Email es único entre todos los records (comparación exacta).
//   - ProviderProfileID se setea a lo sumo una vez y nunca se limpia.
type SignupRecord struct {
	ID                  string
	Email               string
	FirstName           string
	LastName            string
	Company             string
	MembershipCompanyID string

	// Password en claro hasta la creación del perfil en el provider.
	// Trust boundary documentada: el provider exige el plaintext al crear;
	// se limpia apenas la creación es aceptada.
	Password string

	VerificationCode   string
	VerificationStatus VerificationStatus

	ProviderProfileID string
	SyncStatus        SyncStatus

	// MembershipDirty marca que companyId/memberType cambiaron y el
	// provider todavía no los tiene (sweep de membresía).
	MembershipDirty bool

	// Director alimenta el custom flag "director" del provider.
	Director bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verified indica si el record ya completó la verificación OTP.
func (r *SignupRecord) Verified() bool {
	return r.VerificationStatus == VerificationVerified
}

// DirectoryEntry mapea un companyId a un memberType.
// Tabla de referencia, read-only para este servicio. Un mismo companyId
// puede tener varias filas (mapeo ambiguo).
type DirectoryEntry struct {
	CompanyID  string
	MemberType string
}

// MemberProfile es la fila denormalizada de resumen de membresía,
// keyed por email.
type MemberProfile struct {
	Email             string
	ProviderProfileID string
	MemberType        string
	CompanyID         string
	UpdatedAt         time.Time
}
