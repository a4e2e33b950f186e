package signup

import "errors"

// Sentinel errors del signup state machine. El controller HTTP los mapea
// con errors.Is; los fallos transitorios de infraestructura viajan como
// core.ErrUnavailable / provider.ErrUnavailable envueltos.
var (
	// ErrValidation: faltan campos requeridos o están malformados.
	// Sin efectos secundarios.
	ErrValidation = errors.New("signup: missing or malformed required fields")

	// ErrAlreadyRegistered: ya existe un record Verified para ese email.
	ErrAlreadyRegistered = errors.New("signup: email already registered")

	// ErrInvalidCredentials: el código OTP no matchea.
	ErrInvalidCredentials = errors.New("signup: invalid verification code")

	// ErrInvalidCompanyID: el companyId no resuelve en el directorio.
	ErrInvalidCompanyID = errors.New("signup: invalid company id")

	// ErrPasswordMismatch: password y confirmación no son idénticas.
	ErrPasswordMismatch = errors.New("signup: passwords do not match")

	// ErrNotFound: no hay signup record para el email.
	ErrNotFound = errors.New("signup: record not found")

	// ErrProviderProfileMissing: la operación requiere un perfil ya
	// linkeado en el provider y el record no lo tiene.
	ErrProviderProfileMissing = errors.New("signup: provider profile not linked")

	// ErrOTPEmailFailed: el estado quedó persistido pero el correo con el
	// OTP no salió. El record sigue válido; el usuario puede pedir reenvío.
	ErrOTPEmailFailed = errors.New("signup: otp email delivery failed")
)
