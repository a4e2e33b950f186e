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

// CompanyController maneja POST /v1/signup/company.
type CompanyController struct {
	service Service
}

// NewCompanyController creates a new company controller.
func NewCompanyController(service Service) *CompanyController {
	return &CompanyController{service: service}
}

// Update cambia el membership companyId de un record ya linkeado y
// propaga el cambio al provider.
func (c *CompanyController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CompanyController.Update"))

	var req dto.UpdateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	memberType, err := c.service.UpdateCompanyID(ctx, req.Email, req.CompanyID)
	if err != nil {
		c.handleError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpdateCompanyResponse{MemberType: memberType})
	log.Info("company updated", logger.Email(req.Email), logger.CompanyID(req.CompanyID))
}

func (c *CompanyController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	if httpErr := mapCommonErrors(err); httpErr != nil {
		httperrors.WriteError(w, httpErr)
		return
	}
	switch {
	case errors.Is(err, svc.ErrProviderProfileMissing):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("signup not completed for that email"))
	case errors.Is(err, provider.ErrUnavailable):
		// El flag membership_dirty quedó seteado; el membership sweep
		// empuja el cambio más tarde.
		log.Warn("provider unavailable, membership left dirty", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadGateway.WithDetail("identity provider unavailable, change will be retried"))
	default:
		log.Error("update company failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
	}
}
