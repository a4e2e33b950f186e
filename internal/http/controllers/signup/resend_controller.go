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

// ResendController maneja POST /v1/signup/resend-otp.
type ResendController struct {
	service Service
}

// NewResendController creates a new resend controller.
func NewResendController(service Service) *ResendController {
	return &ResendController{service: service}
}

// Resend re-emite el OTP. El código anterior queda invalidado por el
// overwrite.
func (c *ResendController) Resend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ResendController.Resend"))

	var req dto.ResendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	if err := c.service.ResendOTP(ctx, req.Email); err != nil {
		c.handleError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.ResendOTPResponse{Message: "verification code sent"})
	log.Info("otp resent", logger.Email(req.Email))
}

func (c *ResendController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if httpErr := mapCommonErrors(err); httpErr != nil {
		httperrors.WriteError(w, httpErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrOTPEmailFailed):
		log.Warn("otp email delivery failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail("verification email could not be sent"))
	default:
		log.Error("resend otp failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	}
}
