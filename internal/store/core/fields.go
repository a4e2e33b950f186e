package core

// Fields es un set parcial de columnas para updates.
// Las keys son los nombres de campo canónicos (constantes Field*).
type Fields map[string]any

// Nombres de campo canónicos para updates parciales sobre signup records.
const (
	FieldFirstName           = "first_name"
	FieldLastName            = "last_name"
	FieldCompany             = "company"
	FieldMembershipCompanyID = "membership_company_id"
	FieldPassword            = "password"
	FieldVerificationCode    = "verification_code"
	FieldVerificationStatus  = "verification_status"
	FieldProviderProfileID   = "provider_profile_id"
	FieldSyncStatus          = "sync_status"
	FieldMembershipDirty     = "membership_dirty"
	FieldDirector            = "director"
)
