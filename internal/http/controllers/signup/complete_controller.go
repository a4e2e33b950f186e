package signup

import (
	"errors"
	"net/http"

	dto "github.com/AbinJoseph007/new-member-api/internal/http/dto/signup"
	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	svc "github.com/AbinJoseph007/new-member-api/internal/signup"
	"go.uber.org/zap"
)

// CompleteController maneja POST /v1/signup/complete.
type CompleteController struct {
	service Service
}

// NewCompleteController creates a new complete controller.
func NewCompleteController(service Service) *CompleteController {
	return &CompleteController{service: service}
}

// Complete fija la password y materializa el perfil en el provider.
func (c *CompleteController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CompleteController.Complete"))

	var req dto.CompleteSignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	profileID, err := c.service.CompleteSignup(ctx, svc.CompleteSignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		MemberType:      req.MemberType,
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.CompleteSignupResponse{ProviderProfileID: profileID})
	log.Info("signup completed", logger.Email(req.Email), logger.ProfileID(profileID))
}

func (c *CompleteController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if httpErr := mapCommonErrors(err); httpErr != nil {
		httperrors.WriteError(w, httpErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrPasswordMismatch):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("passwords do not match"))
	case errors.Is(err, provider.ErrUnavailable):
		// La password ya quedó persistida; el reconciliation engine
		// retoma el record en el próximo sweep.
		log.Warn("provider unavailable, record left pending", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail("identity provider unavailable, signup will be retried"))
	default:
		log.Error("complete signup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	}
}
