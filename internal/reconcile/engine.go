// Package reconcile implementa los sweeps periódicos que convergen los
// signup records contra el identity provider.
//
// Dos sweeps independientes:
//   - convergencia (frecuente): records con sync_status=pending y
//     credencial usable → create-or-update del perfil completo.
//   - membresía (baja frecuencia): records con membership_dirty →
//     empuja solo companyId/memberType, acotando el blast radius de una
//     edición del directorio.
//
// Cada sweep es una sección crítica no reentrante: un tick que llega con
// el sweep anterior todavía en vuelo se saltea, nunca corre en paralelo
// consigo mismo.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/AbinJoseph007/new-member-api/internal/directory"
	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/email"
	"github.com/AbinJoseph007/new-member-api/internal/metrics"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// ErrSweepInProgress indica que el sweep anterior sigue corriendo.
var ErrSweepInProgress = errors.New("reconcile: sweep already in progress")

// minPasswordLen es el largo mínimo (post-trim) para considerar la
// credencial usable. Passwords más cortas se saltean, no se erran.
const minPasswordLen = 8

// Deps contiene las dependencias del engine.
type Deps struct {
	Signups   core.SignupStore
	Profiles  core.MemberProfileStore
	Directory *directory.Lookup
	Provider  provider.API
	Sender    email.Sender

	// Interval del sweep de convergencia. Default 1m.
	Interval time.Duration

	// MembershipInterval del sweep de membresía. Default 10m.
	MembershipInterval time.Duration

	// RecordTimeout acota cada record individual. Default 15s.
	RecordTimeout time.Duration
}

// Stats resume una ejecución de sweep.
type Stats struct {
	Scanned   int
	Converged int
	Failed    int
	Skipped   int
}

// Engine ejecuta los sweeps.
type Engine struct {
	deps Deps

	// Un guard con capacidad 1 por sweep (non-reentrancy).
	convGuard *semaphore.Weighted
	memGuard  *semaphore.Weighted
}

// New crea el engine con defaults aplicados.
func New(deps Deps) *Engine {
	if deps.Interval <= 0 {
		deps.Interval = time.Minute
	}
	if deps.MembershipInterval <= 0 {
		deps.MembershipInterval = 10 * time.Minute
	}
	if deps.RecordTimeout <= 0 {
		deps.RecordTimeout = 15 * time.Second
	}
	return &Engine{
		deps:      deps,
		convGuard: semaphore.NewWeighted(1),
		memGuard:  semaphore.NewWeighted(1),
	}
}

// Run arranca ambos loops y bloquea hasta que el contexto se cancele.
// Pensado para correr en su propia goroutine desde main.
func (e *Engine) Run(ctx context.Context) {
	log := logger.Named("reconcile")
	log.Info("reconciliation engine started",
		logger.Any("interval", e.deps.Interval.String()),
		logger.Any("membership_interval", e.deps.MembershipInterval.String()),
	)

	conv := time.NewTicker(e.deps.Interval)
	defer conv.Stop()
	mem := time.NewTicker(e.deps.MembershipInterval)
	defer mem.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciliation engine stopped")
			return
		case <-conv.C:
			e.tick(ctx, "convergence", e.convGuard, e.convergenceSweep)
		case <-mem.C:
			e.tick(ctx, "membership", e.memGuard, e.membershipSweep)
		}
	}
}

// tick lanza un sweep en goroutine propia si el anterior ya terminó;
// si no, saltea el tick.
func (e *Engine) tick(ctx context.Context, name string, guard *semaphore.Weighted, sweep func(context.Context) Stats) {
	if !guard.TryAcquire(1) {
		logger.L().Debug("sweep still in flight, tick skipped", logger.Sweep(name))
		incSweepRun(name, "skipped_overlap")
		return
	}
	go func() {
		defer guard.Release(1)
		e.runSweep(ctx, name, sweep)
	}()
}

// RunConvergenceSweep ejecuta el sweep de convergencia una vez (admin
// trigger / tests). ErrSweepInProgress si ya hay uno corriendo.
func (e *Engine) RunConvergenceSweep(ctx context.Context) (Stats, error) {
	if !e.convGuard.TryAcquire(1) {
		return Stats{}, ErrSweepInProgress
	}
	defer e.convGuard.Release(1)
	return e.runSweep(ctx, "convergence", e.convergenceSweep), nil
}

// RunMembershipSweep ejecuta el sweep de membresía una vez.
func (e *Engine) RunMembershipSweep(ctx context.Context) (Stats, error) {
	if !e.memGuard.TryAcquire(1) {
		return Stats{}, ErrSweepInProgress
	}
	defer e.memGuard.Release(1)
	return e.runSweep(ctx, "membership", e.membershipSweep), nil
}

func (e *Engine) runSweep(ctx context.Context, name string, sweep func(context.Context) Stats) Stats {
	log := logger.Named("reconcile").With(logger.Sweep(name))
	start := time.Now()

	stats := sweep(ctx)

	elapsed := time.Since(start)
	observeSweep(name, elapsed)
	incSweepRun(name, "ok")
	log.Info("sweep finished",
		logger.Int("scanned", stats.Scanned),
		logger.Int("converged", stats.Converged),
		logger.Int("failed", stats.Failed),
		logger.Int("skipped", stats.Skipped),
		logger.Duration(elapsed),
	)
	return stats
}

// ─── convergence sweep ───

func (e *Engine) convergenceSweep(ctx context.Context) Stats {
	log := logger.Named("reconcile").With(logger.Sweep("convergence"))
	var stats Stats

	// Full scan; sin cursor incremental.
	records, err := e.deps.Signups.List(ctx)
	if err != nil {
		log.Error("record scan failed", logger.Err(err))
		stats.Failed++
		return stats
	}
	stats.Scanned = len(records)

	for i := range records {
		rec := &records[i]
		if rec.SyncStatus != types.SyncPending {
			continue
		}
		// Credencial usable: password con ≥ 8 caracteres tras trim.
		// Más corta se saltea y se reintenta el próximo tick.
		if len(strings.TrimSpace(rec.Password)) < minPasswordLen {
			incSweepRecord("convergence", "skipped")
			stats.Skipped++
			continue
		}

		if err := e.convergeRecord(ctx, rec); err != nil {
			// Un record fallido nunca aborta el sweep: queda pending.
			log.Warn("record reconciliation failed, will retry",
				logger.Email(rec.Email), logger.RecordID(rec.ID), logger.Err(err))
			incSweepRecord("convergence", "failed")
			stats.Failed++
			continue
		}
		incSweepRecord("convergence", "converged")
		stats.Converged++
	}
	return stats
}

// convergeRecord lleva un record pending a converged contra el provider.
func (e *Engine) convergeRecord(ctx context.Context, rec *types.SignupRecord) error {
	rctx, cancel := context.WithTimeout(ctx, e.deps.RecordTimeout)
	defer cancel()

	memberType := e.resolveMemberType(rctx, rec.MembershipCompanyID)

	id, created, err := e.deps.Provider.CreateOrUpdate(rctx, provider.Profile{
		Email:    rec.Email,
		Password: rec.Password,
		Custom: provider.CustomFields{
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			Company:    rec.Company,
			CompanyID:  rec.MembershipCompanyID,
			MemberType: memberType,
			Director:   rec.Director,
		},
	})
	if err != nil {
		return err
	}

	// providerProfileId se setea una vez; la password en claro no
	// sobrevive a la creación aceptada.
	linkedID := rec.ProviderProfileID
	if linkedID == "" {
		linkedID = id
	}
	if _, err := e.deps.Signups.Update(rctx, rec.ID, core.Fields{
		core.FieldProviderProfileID: linkedID,
		core.FieldSyncStatus:        types.SyncConverged,
		core.FieldPassword:          "",
	}); err != nil {
		return err
	}

	if e.deps.Profiles != nil {
		if err := e.deps.Profiles.Upsert(rctx, &types.MemberProfile{
			Email:             rec.Email,
			ProviderProfileID: linkedID,
			MemberType:        memberType,
			CompanyID:         rec.MembershipCompanyID,
		}); err != nil {
			logger.L().Warn("member profile upsert failed",
				logger.Sweep("convergence"), logger.Email(rec.Email), logger.Err(err))
		}
	}

	if created {
		// Aviso one-time de cuenta creada, con la password en claro que
		// exigió el provider. Trust boundary documentada; fire-and-forget.
		msg := email.AccountCreatedMessage(rec.FirstName, rec.Email, rec.Password)
		if err := e.deps.Sender.Send(rec.Email, msg.Subject, msg.TextBody, msg.HTMLBody); err != nil {
			logger.L().Warn("account created email failed",
				logger.Sweep("convergence"), logger.Email(rec.Email), logger.Err(err))
		}
	}
	return nil
}

// ─── membership sweep ───

func (e *Engine) membershipSweep(ctx context.Context) Stats {
	log := logger.Named("reconcile").With(logger.Sweep("membership"))
	var stats Stats

	records, err := e.deps.Signups.List(ctx)
	if err != nil {
		log.Error("record scan failed", logger.Err(err))
		stats.Failed++
		return stats
	}
	stats.Scanned = len(records)

	for i := range records {
		rec := &records[i]
		if !rec.MembershipDirty {
			continue
		}
		if rec.ProviderProfileID == "" {
			// Sin perfil linkeado todavía; el sweep de convergencia lo
			// creará con los campos al día.
			incSweepRecord("membership", "skipped")
			stats.Skipped++
			continue
		}

		if err := e.pushMembership(ctx, rec); err != nil {
			log.Warn("membership push failed, will retry",
				logger.Email(rec.Email), logger.Err(err))
			incSweepRecord("membership", "failed")
			stats.Failed++
			continue
		}
		incSweepRecord("membership", "converged")
		stats.Converged++
	}
	return stats
}

func (e *Engine) pushMembership(ctx context.Context, rec *types.SignupRecord) error {
	rctx, cancel := context.WithTimeout(ctx, e.deps.RecordTimeout)
	defer cancel()

	memberType := e.resolveMemberType(rctx, rec.MembershipCompanyID)
	if err := e.deps.Provider.UpdateCustomFields(rctx, rec.ProviderProfileID, map[string]any{
		"companyId":  rec.MembershipCompanyID,
		"memberType": memberType,
	}); err != nil {
		return err
	}
	_, err := e.deps.Signups.Update(rctx, rec.ID, core.Fields{
		core.FieldMembershipDirty: false,
	})
	return err
}

// resolveMemberType resuelve best-effort; un companyId vacío o desconocido
// resulta en memberType vacío, no en error.
func (e *Engine) resolveMemberType(ctx context.Context, companyID string) string {
	if companyID == "" || e.deps.Directory == nil {
		return ""
	}
	res, err := e.deps.Directory.Resolve(ctx, companyID)
	if err != nil {
		return ""
	}
	return res.Selected
}

// ─── metrics helpers (no-op si Register no corrió) ───

func incSweepRun(sweep, result string) {
	if metrics.SweepRunsTotal != nil {
		metrics.SweepRunsTotal.WithLabelValues(sweep, result).Inc()
	}
}

func incSweepRecord(sweep, outcome string) {
	if metrics.SweepRecordsTotal != nil {
		metrics.SweepRecordsTotal.WithLabelValues(sweep, outcome).Inc()
	}
}

func observeSweep(sweep string, d time.Duration) {
	if metrics.SweepDuration != nil {
		metrics.SweepDuration.WithLabelValues(sweep).Observe(d.Seconds())
	}
}
