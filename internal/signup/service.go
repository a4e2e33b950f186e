// Package signup implementa el state machine del alta de miembros:
// emisión/re-emisión de OTP, verificación, set de password y linkage
// del perfil en el identity provider.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AbinJoseph007/new-member-api/internal/directory"
	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/email"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/otp"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
	"github.com/AbinJoseph007/new-member-api/internal/validation"
)

// Service es el signup state machine. Todas las dependencias entran por
// constructor para poder sustituirlas con fakes en tests.
type Service struct {
	deps Deps
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Signups   core.SignupStore
	Profiles  core.MemberProfileStore
	Directory *directory.Lookup
	OTP       *otp.Service
	Provider  provider.API
	Sender    email.Sender
}

// New crea el servicio.
func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// ─── StartSignup ───

// StartSignupInput es la bolsa de campos del alta.
type StartSignupInput struct {
	Email               string
	FirstName           string
	LastName            string
	Company             string
	MembershipCompanyID string
	Director            bool
}

// StartSignupResult incluye el OTP emitido (viaja por email, nunca por la
// respuesta HTTP) y el memberType resuelto si hubo companyId.
type StartSignupResult struct {
	Code       string
	MemberType string
}

// StartSignup crea o refresca el record y emite un OTP.
//   - companyId no vacío se valida contra el directorio (ErrInvalidCompanyID).
//   - Record inexistente → se crea con verification_status=NotVerified.
//   - Record no verificado → re-emite OTP y pisa los campos de perfil
//     con el último submit (last-write-wins).
//   - Record Verified → ErrAlreadyRegistered, sin mutaciones.
//
// El correo con el OTP es at-least-once: un fallo de envío después del
// estado persistido se reporta como ErrOTPEmailFailed junto al resultado,
// sin rollback.
func (s *Service) StartSignup(ctx context.Context, in StartSignupInput) (*StartSignupResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("signup"),
		logger.Op("StartSignup"),
	)

	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Company = strings.TrimSpace(in.Company)
	in.MembershipCompanyID = strings.TrimSpace(in.MembershipCompanyID)

	if !validation.ValidEmail(in.Email) {
		return nil, ErrValidation
	}

	memberType := ""
	if in.MembershipCompanyID != "" {
		res, err := s.deps.Directory.Resolve(ctx, in.MembershipCompanyID)
		if err != nil {
			if errors.Is(err, directory.ErrUnknownCompanyID) {
				return nil, ErrInvalidCompanyID
			}
			return nil, err
		}
		memberType = res.Selected
	}

	rec, err := s.deps.Signups.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if rec.Verified() {
			return nil, ErrAlreadyRegistered
		}
		rec, err = s.deps.Signups.Update(ctx, rec.ID, core.Fields{
			core.FieldFirstName:           in.FirstName,
			core.FieldLastName:            in.LastName,
			core.FieldCompany:             in.Company,
			core.FieldMembershipCompanyID: in.MembershipCompanyID,
			core.FieldDirector:            in.Director,
			core.FieldVerificationStatus:  types.VerificationNotVerified,
		})
		if err != nil {
			return nil, fmt.Errorf("refresh record: %w", err)
		}
	case errors.Is(err, core.ErrNotFound):
		rec, err = s.createRecord(ctx, in)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lookup record: %w", err)
	}

	code, err := s.deps.OTP.Issue(ctx, rec)
	if err != nil {
		return nil, err
	}

	result := &StartSignupResult{Code: code, MemberType: memberType}

	msg := email.OTPMessage(rec.FirstName, rec.LastName, code)
	if err := s.deps.Sender.Send(rec.Email, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
		// Estado ya persistido: se reporta, no se revierte.
		log.Error("otp email delivery failed", logger.Email(rec.Email), logger.Err(err))
		return result, ErrOTPEmailFailed
	}

	log.Info("otp issued", logger.Email(rec.Email), logger.RecordID(rec.ID))
	return result, nil
}

// createRecord inserta el record inicial; si otro request concurrente ganó
// la carrera del create, sigue por el camino de update (last-write-wins).
func (s *Service) createRecord(ctx context.Context, in StartSignupInput) (*types.SignupRecord, error) {
	rec, err := s.deps.Signups.Create(ctx, &types.SignupRecord{
		Email:               in.Email,
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		Company:             in.Company,
		MembershipCompanyID: in.MembershipCompanyID,
		Director:            in.Director,
		VerificationStatus:  types.VerificationNotVerified,
		SyncStatus:          types.SyncPending,
	})
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, core.ErrConflict) {
		return nil, fmt.Errorf("create record: %w", err)
	}

	rec, gerr := s.deps.Signups.GetByEmail(ctx, in.Email)
	if gerr != nil {
		return nil, fmt.Errorf("create race lookup: %w", gerr)
	}
	if rec.Verified() {
		return nil, ErrAlreadyRegistered
	}
	return s.deps.Signups.Update(ctx, rec.ID, core.Fields{
		core.FieldFirstName:           in.FirstName,
		core.FieldLastName:            in.LastName,
		core.FieldCompany:             in.Company,
		core.FieldMembershipCompanyID: in.MembershipCompanyID,
		core.FieldDirector:            in.Director,
	})
}

// ─── ResendOTP ───

// ResendOTP re-emite el código para un record existente no verificado.
func (s *Service) ResendOTP(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return ErrValidation
	}
	rec, err := s.deps.Signups.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup record: %w", err)
	}
	if rec.Verified() {
		return ErrAlreadyRegistered
	}
	code, err := s.deps.OTP.Issue(ctx, rec)
	if err != nil {
		return err
	}
	msg := email.OTPMessage(rec.FirstName, rec.LastName, code)
	if err := s.deps.Sender.Send(rec.Email, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
		logger.From(ctx).Error("otp email delivery failed",
			logger.Component("signup"), logger.Email(rec.Email), logger.Err(err))
		return ErrOTPEmailFailed
	}
	return nil
}

// ─── CheckOTP ───

// CheckOTP verifica el código sin mutar estado. La verificación se
// confirma recién en CompleteSignup. Devuelve el memberType resuelto
// (best-effort) para que el front pueda mostrarlo en el paso siguiente.
func (s *Service) CheckOTP(ctx context.Context, emailAddr, code string) (string, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || !validation.ValidOTPCode(code) {
		return "", ErrValidation
	}

	ok, err := s.deps.OTP.Verify(ctx, emailAddr, code)
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	rec, err := s.deps.Signups.GetByEmail(ctx, emailAddr)
	if err != nil || rec.MembershipCompanyID == "" {
		return "", nil
	}
	res, err := s.deps.Directory.Resolve(ctx, rec.MembershipCompanyID)
	if err != nil {
		return "", nil
	}
	return res.Selected, nil
}

// ─── CompleteSignup ───

// CompleteSignupInput es la bolsa de campos del cierre del alta.
type CompleteSignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	MemberType      string
}

// CompleteSignup fija la password, crea (o actualiza) el perfil en el
// identity provider y deja el record Verified con su providerProfileId.
// Es el único punto donde verification_status se vuelve terminal.
//
// La password se persiste sobre el record ANTES de llamar al provider:
// si el provider falla, el record queda pending con credencial usable y
// el reconciliation engine lo converge en el próximo tick.
func (s *Service) CompleteSignup(ctx context.Context, in CompleteSignupInput) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("signup"),
		logger.Op("CompleteSignup"),
	)

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return "", ErrValidation
	}
	// Comparación exacta: una diferencia de whitespace es mismatch.
	if in.Password != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}

	rec, err := s.deps.Signups.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup record: %w", err)
	}

	// Write path marca pending: si el provider falla acá abajo, el sweep
	// retoma este record.
	rec, err = s.deps.Signups.Update(ctx, rec.ID, core.Fields{
		core.FieldPassword:   in.Password,
		core.FieldSyncStatus: types.SyncPending,
	})
	if err != nil {
		return "", fmt.Errorf("persist credential: %w", err)
	}

	profileID, _, err := s.deps.Provider.CreateOrUpdate(ctx, provider.Profile{
		Email:    rec.Email,
		Password: in.Password,
		Custom: provider.CustomFields{
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			Company:    rec.Company,
			CompanyID:  rec.MembershipCompanyID,
			MemberType: in.MemberType,
			Director:   rec.Director,
		},
	})
	if err != nil {
		log.Warn("provider call failed, record left pending",
			logger.Email(rec.Email), logger.Err(err))
		return "", err
	}

	// providerProfileId se setea una sola vez y nunca se limpia.
	linkedID := rec.ProviderProfileID
	if linkedID == "" {
		linkedID = profileID
	}

	if _, err := s.deps.Signups.Update(ctx, rec.ID, core.Fields{
		core.FieldProviderProfileID:  linkedID,
		core.FieldVerificationStatus: types.VerificationVerified,
		core.FieldSyncStatus:         types.SyncConverged,
		core.FieldPassword:           "",
	}); err != nil {
		return "", fmt.Errorf("finalize record: %w", err)
	}

	if err := s.deps.Profiles.Upsert(ctx, &types.MemberProfile{
		Email:             rec.Email,
		ProviderProfileID: linkedID,
		MemberType:        in.MemberType,
		CompanyID:         rec.MembershipCompanyID,
	}); err != nil {
		// El resumen es denormalizado; no invalida el alta.
		log.Warn("member profile upsert failed", logger.Email(rec.Email), logger.Err(err))
	}

	log.Info("signup completed", logger.Email(rec.Email), logger.ProfileID(linkedID))
	return linkedID, nil
}

// ─── UpdateCompanyID ───

// UpdateCompanyID re-valida el companyId, lo persiste y empuja los campos
// de membresía al perfil ya linkeado. Idempotente: repetir la llamada con
// el mismo companyId produce el mismo estado final.
func (s *Service) UpdateCompanyID(ctx context.Context, emailAddr, companyID string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("signup"),
		logger.Op("UpdateCompanyID"),
	)

	emailAddr = strings.TrimSpace(emailAddr)
	companyID = strings.TrimSpace(companyID)
	if emailAddr == "" || companyID == "" {
		return "", ErrValidation
	}

	res, err := s.deps.Directory.Resolve(ctx, companyID)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownCompanyID) {
			return "", ErrInvalidCompanyID
		}
		return "", err
	}

	rec, err := s.deps.Signups.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup record: %w", err)
	}
	if rec.ProviderProfileID == "" {
		return "", ErrProviderProfileMissing
	}

	// Persistir primero y marcar dirty: si el PATCH falla, el sweep de
	// membresía reintenta con el estado ya guardado.
	rec, err = s.deps.Signups.Update(ctx, rec.ID, core.Fields{
		core.FieldMembershipCompanyID: companyID,
		core.FieldMembershipDirty:     true,
	})
	if err != nil {
		return "", fmt.Errorf("persist company id: %w", err)
	}

	if err := s.deps.Provider.UpdateCustomFields(ctx, rec.ProviderProfileID, map[string]any{
		"companyId":  companyID,
		"memberType": res.Selected,
	}); err != nil {
		log.Warn("provider membership push failed, left dirty",
			logger.Email(emailAddr), logger.Err(err))
		return "", err
	}

	if _, err := s.deps.Signups.Update(ctx, rec.ID, core.Fields{
		core.FieldMembershipDirty: false,
	}); err != nil {
		return "", fmt.Errorf("clear dirty marker: %w", err)
	}

	if err := s.deps.Profiles.Upsert(ctx, &types.MemberProfile{
		Email:             rec.Email,
		ProviderProfileID: rec.ProviderProfileID,
		MemberType:        res.Selected,
		CompanyID:         companyID,
	}); err != nil {
		log.Warn("member profile upsert failed", logger.Email(emailAddr), logger.Err(err))
	}

	log.Info("company id updated",
		logger.Email(emailAddr),
		logger.CompanyID(companyID),
		logger.MemberType(res.Selected))
	return res.Selected, nil
}
