// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/admin"
	healthctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/health"
	signupctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/signup"
	mw "github.com/AbinJoseph007/new-member-api/internal/http/middlewares"
	"github.com/AbinJoseph007/new-member-api/internal/rate"
)

// Deps contiene las dependencias del router principal.
type Deps struct {
	Signup *signupctrl.Controllers
	Health *healthctrl.HealthController
	Admin  *adminctrl.Controllers

	// Metrics es el handler de promhttp; expuesto detrás del API key.
	Metrics http.Handler

	// OTPLimiter acota start y resend-otp por email. Unlimited si no hay cache.
	OTPLimiter rate.Limiter

	// AdminAPIKeyHash es el hash bcrypt del API key. Vacío apaga las
	// rutas admin (404).
	AdminAPIKeyHash string

	AllowedOrigins []string
}

// New arma el router chi con la cadena de middlewares estándar.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithCORS(deps.AllowedOrigins))

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)

	r.Route("/v1/signup", func(r chi.Router) {
		// Solo los endpoints que disparan emails llevan rate limit.
		r.Group(func(r chi.Router) {
			if deps.OTPLimiter != nil {
				r.Use(mw.WithRateLimit(deps.OTPLimiter, mw.EmailKey))
			}
			r.Post("/start", deps.Signup.Start.Start)
			r.Post("/resend-otp", deps.Signup.Resend.Resend)
		})
		r.Post("/check-otp", deps.Signup.CheckOTP.Check)
		r.Post("/complete", deps.Signup.Complete.Complete)
		r.Post("/company", deps.Signup.Company.Update)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.WithAdminKey(deps.AdminAPIKeyHash))

		if deps.Metrics != nil {
			r.Get("/metrics", deps.Metrics.ServeHTTP)
		}
		r.Route("/v1/admin", func(r chi.Router) {
			r.Get("/records", deps.Admin.Records.List)
			r.Get("/records/{email}", deps.Admin.Records.Show)
			r.Post("/sweeps/convergence", deps.Admin.Sweeps.RunConvergence)
			r.Post("/sweeps/membership", deps.Admin.Sweeps.RunMembership)
		})
	})

	return r
}
