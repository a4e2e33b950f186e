// Package logger provee un logger estructurado (zap) como singleton,
// con helpers de campos estándar y propagación por contexto.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "new-member-api"})
//	defer logger.Sync()
//
//	log := logger.Named("reconcile")
//	log.Info("sweep finished", logger.Sweep("convergence"), logger.Count(12))
//
// En handlers HTTP, el middleware de logging inyecta un logger "scoped"
// con request_id; se recupera con logger.From(ctx).
package logger
