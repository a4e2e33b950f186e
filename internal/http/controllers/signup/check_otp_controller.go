package signup

import (
	"errors"
	"net/http"

	dto "github.com/AbinJoseph007/new-member-api/internal/http/dto/signup"
	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	svc "github.com/AbinJoseph007/new-member-api/internal/signup"
	"go.uber.org/zap"
)

// CheckOTPController maneja POST /v1/signup/check-otp.
type CheckOTPController struct {
	service Service
}

// NewCheckOTPController creates a new check-otp controller.
func NewCheckOTPController(service Service) *CheckOTPController {
	return &CheckOTPController{service: service}
}

// Check valida el código OTP vigente. No muta estado: completar el alta
// es una llamada aparte.
func (c *CheckOTPController) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CheckOTPController.Check"))

	var req dto.CheckOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	memberType, err := c.service.CheckOTP(ctx, req.Email, req.Code)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckOTPResponse{Valid: true, MemberType: memberType})
	log.Info("otp verified", logger.Email(req.Email))
}

func (c *CheckOTPController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if httpErr := mapCommonErrors(err); httpErr != nil {
		httperrors.WriteError(w, httpErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid verification code"))
	default:
		log.Error("check otp failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	}
}
