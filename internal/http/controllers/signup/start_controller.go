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

// StartController maneja POST /v1/signup/start.
type StartController struct {
	service Service
}

// NewStartController creates a new start controller.
func NewStartController(service Service) *StartController {
	return &StartController{service: service}
}

// Start arranca (o refresca) el alta y dispara el OTP por email.
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	var req dto.StartSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	result, err := c.service.StartSignup(ctx, svc.StartSignupInput{
		Email:               req.Email,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Company:             req.Company,
		MembershipCompanyID: req.MembershipCompanyID,
		Director:            req.Director,
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	resp := dto.StartSignupResponse{Message: "verification code sent"}
	if result != nil {
		resp.MemberType = result.MemberType
	}
	writeJSON(w, http.StatusOK, resp)

	log.Info("signup started", logger.Email(req.Email))
}

func (c *StartController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if httpErr := mapCommonErrors(err); httpErr != nil {
		httperrors.WriteError(w, httpErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrOTPEmailFailed):
		// El record quedó persistido; el cliente puede pedir reenvío.
		log.Warn("otp email delivery failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail("verification email could not be sent"))
	default:
		log.Error("start signup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	}
}
