// Package signup contiene los controllers HTTP del flujo de alta.
package signup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
	svc "github.com/AbinJoseph007/new-member-api/internal/signup"
)

const maxBodySize = 64 * 1024 // 64KB

// Service son las operaciones del signup state machine que consumen
// estos controllers. *signup.Service la implementa; los tests usan fakes.
type Service interface {
	StartSignup(ctx context.Context, in svc.StartSignupInput) (*svc.StartSignupResult, error)
	CheckOTP(ctx context.Context, email, code string) (string, error)
	CompleteSignup(ctx context.Context, in svc.CompleteSignupInput) (string, error)
	UpdateCompanyID(ctx context.Context, email, companyID string) (string, error)
	ResendOTP(ctx context.Context, email string) error
}

// Controllers agrupa los controllers del flujo para el router.
type Controllers struct {
	Start    *StartController
	CheckOTP *CheckOTPController
	Complete *CompleteController
	Company  *CompanyController
	Resend   *ResendController
}

// NewControllers arma todos los controllers sobre el mismo service.
func NewControllers(s Service) *Controllers {
	return &Controllers{
		Start:    NewStartController(s),
		CheckOTP: NewCheckOTPController(s),
		Complete: NewCompleteController(s),
		Company:  NewCompanyController(s),
		Resend:   NewResendController(s),
	}
}

// decodeJSON aplica los límites estándar: body acotado, campos
// desconocidos rechazados, sin datos extra después del objeto.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return httperrors.ErrInvalidJSON
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return httperrors.ErrInvalidJSON
	}
	return nil
}

// writeJSON serializa la respuesta exitosa.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// mapCommonErrors traduce los sentinels compartidos del service.
// Retorna nil si el error no es de los comunes.
func mapCommonErrors(err error) *httperrors.HTTPError {
	switch {
	case errors.Is(err, svc.ErrValidation):
		return httperrors.ErrBadRequest.WithDetail("missing or malformed required fields")
	case errors.Is(err, svc.ErrNotFound):
		return httperrors.ErrNotFound.WithDetail("no signup record for that email")
	case errors.Is(err, svc.ErrAlreadyRegistered):
		return httperrors.ErrConflict.WithDetail("email already registered")
	case errors.Is(err, svc.ErrInvalidCompanyID):
		return httperrors.ErrBadRequest.WithDetail("company id not found in directory")
	default:
		return nil
	}
}
