// Package otp emite y verifica códigos one-time de 6 dígitos contra
// el signup store.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// Generate produce un código decimal uniforme en [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("otp: rand: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Service emite y verifica OTPs. Los códigos no expiran por tiempo:
// re-emitir es el único mecanismo de invalidación (sobrescritura).
type Service struct {
	signups core.SignupStore
}

// New crea el servicio sobre el signup store.
func New(signups core.SignupStore) *Service {
	return &Service{signups: signups}
}

// Issue genera un código nuevo y lo persiste sobre el record,
// invalidando el anterior. No toca verification_status: un record
// Verified sigue Verified aunque se le emita un código.
func (s *Service) Issue(ctx context.Context, rec *types.SignupRecord) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}
	if _, err := s.signups.Update(ctx, rec.ID, core.Fields{
		core.FieldVerificationCode: code,
	}); err != nil {
		return "", fmt.Errorf("otp: persist code: %w", err)
	}
	return code, nil
}

// Verify retorna true sii existe un record con email Y código exactos.
// No muta estado: confirmar la verificación es responsabilidad del
// signup state machine. Un fallo del store se propaga como
// core.ErrUnavailable, nunca como "no match".
func (s *Service) Verify(ctx context.Context, email, code string) (bool, error) {
	_, err := s.signups.GetByEmailAndCode(ctx, email, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return false, err
}
