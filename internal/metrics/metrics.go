// Package metrics expone los collectors Prometheus del servicio.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// SweepRunsTotal cuenta ejecuciones de sweep por resultado.
	// result: ok | error | skipped_overlap
	SweepRunsTotal *prometheus.CounterVec

	// SweepDuration mide la duración de cada sweep completo.
	SweepDuration *prometheus.HistogramVec

	// SweepRecordsTotal cuenta records procesados por outcome.
	// outcome: converged | failed | skipped
	SweepRecordsTotal *prometheus.CounterVec

	// ProviderRequestsTotal cuenta llamadas al identity provider.
	// result: ok | conflict | not_found | error
	ProviderRequestsTotal *prometheus.CounterVec
)

// Register inicializa los collectors y devuelve el handler para /metrics.
// Idempotente: solo el primer Register registra.
func Register(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		SweepRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_sweep_runs_total",
			Help: "Número total de sweeps ejecutados",
		}, []string{"sweep", "result"})

		SweepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reconcile_sweep_duration_seconds",
			Help:    "Duración de cada sweep de reconciliación",
			Buckets: prometheus.DefBuckets,
		}, []string{"sweep"})

		SweepRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_sweep_records_total",
			Help: "Records procesados por sweep y outcome",
		}, []string{"sweep", "outcome"})

		ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_provider_requests_total",
			Help: "Llamadas al identity provider por operación y resultado",
		}, []string{"op", "result"})

		reg.MustRegister(SweepRunsTotal, SweepDuration, SweepRecordsTotal, ProviderRequestsTotal)
	})

	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
