// Package health contiene el controller para health checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
)

// Pinger es lo mínimo que el readiness check necesita del store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component es el estado de una dependencia individual.
type Component struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Response es el body de /healthz y /readyz.
type Response struct {
	Status     string      `json:"status"`
	Version    string      `json:"version,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	store   Pinger
	version string
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(store Pinger, version string) *HealthController {
	return &HealthController{store: store, version: version}
}

// Healthz maneja GET /healthz. Liveness puro, sin tocar dependencias.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz. Chequea el store con timeout corto.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := Response{Status: "ready", Version: c.version}
	statusCode := http.StatusOK

	comp := Component{Name: "store", Status: "ok"}
	if err := c.store.Ping(checkCtx); err != nil {
		comp.Status = "unavailable"
		comp.Error = err.Error()
		resp.Status = "unavailable"
		statusCode = http.StatusServiceUnavailable
		log.Warn("store ping failed", logger.Err(err))
	}
	resp.Components = append(resp.Components, comp)

	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}
	writeJSON(w, statusCode, resp)
}

func writeJSON(w http.ResponseWriter, status int, v Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
