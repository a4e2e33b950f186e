// Package admin contiene los controllers detrás del API key de admin.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/reconcile"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// Sweeper dispara sweeps one-shot del reconciliation engine.
type Sweeper interface {
	RunConvergenceSweep(ctx context.Context) (reconcile.Stats, error)
	RunMembershipSweep(ctx context.Context) (reconcile.Stats, error)
}

// Controllers agrupa los controllers admin para el router.
type Controllers struct {
	Records *RecordsController
	Sweeps  *SweepsController
}

// NewControllers arma los controllers de operación.
func NewControllers(signups core.SignupStore, sweeper Sweeper) *Controllers {
	return &Controllers{
		Records: &RecordsController{signups: signups},
		Sweeps:  &SweepsController{sweeper: sweeper},
	}
}

// ─── Records ───

// recordView es la proyección sin credenciales de un SignupRecord.
// La password nunca sale por esta API, ni siquiera para operadores.
type recordView struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Company             string `json:"company,omitempty"`
	MembershipCompanyID string `json:"membershipCompanyId,omitempty"`
	VerificationStatus  string `json:"verificationStatus"`
	ProviderProfileID   string `json:"providerProfileId,omitempty"`
	SyncStatus          string `json:"syncStatus,omitempty"`
	MembershipDirty     bool   `json:"membershipDirty"`
	Director            bool   `json:"director"`
	CreatedAt           string `json:"createdAt"`
	UpdatedAt           string `json:"updatedAt"`
}

func toView(rec *types.SignupRecord) recordView {
	return recordView{
		ID:                  rec.ID,
		Email:               rec.Email,
		FirstName:           rec.FirstName,
		LastName:            rec.LastName,
		Company:             rec.Company,
		MembershipCompanyID: rec.MembershipCompanyID,
		VerificationStatus:  string(rec.VerificationStatus),
		ProviderProfileID:   rec.ProviderProfileID,
		SyncStatus:          string(rec.SyncStatus),
		MembershipDirty:     rec.MembershipDirty,
		Director:            rec.Director,
		CreatedAt:           rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:           rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RecordsController maneja las rutas /v1/admin/records.
type RecordsController struct {
	signups core.SignupStore
}

// List maneja GET /v1/admin/records.
func (c *RecordsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RecordsController.List"))

	recs, err := c.signups.List(ctx)
	if err != nil {
		log.Error("list records failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	views := make([]recordView, 0, len(recs))
	for i := range recs {
		views = append(views, toView(&recs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": views, "count": len(views)})
}

// Show maneja GET /v1/admin/records/{email}.
func (c *RecordsController) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RecordsController.Show"))

	emailAddr := chi.URLParam(r, "email")
	rec, err := c.signups.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound)
			return
		}
		log.Error("get record failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, toView(rec))
}

// ─── Sweeps ───

// SweepsController dispara sweeps manualmente.
type SweepsController struct {
	sweeper Sweeper
}

// RunConvergence maneja POST /v1/admin/sweeps/convergence.
func (c *SweepsController) RunConvergence(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "convergence", c.sweeper.RunConvergenceSweep)
}

// RunMembership maneja POST /v1/admin/sweeps/membership.
func (c *SweepsController) RunMembership(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, "membership", c.sweeper.RunMembershipSweep)
}

func (c *SweepsController) run(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (reconcile.Stats, error)) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SweepsController.run"), logger.Sweep(name))

	stats, err := fn(ctx)
	if err != nil {
		if errors.Is(err, reconcile.ErrSweepInProgress) {
			httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("sweep already in progress"))
			return
		}
		log.Error("sweep failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	log.Info("sweep triggered",
		logger.Int("scanned", stats.Scanned),
		logger.Int("converged", stats.Converged),
		logger.Int("failed", stats.Failed),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"sweep":     name,
		"scanned":   stats.Scanned,
		"converged": stats.Converged,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
