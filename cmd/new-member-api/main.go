package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AbinJoseph007/new-member-api/internal/cache"
	"github.com/AbinJoseph007/new-member-api/internal/config"
	"github.com/AbinJoseph007/new-member-api/internal/directory"
	"github.com/AbinJoseph007/new-member-api/internal/email"
	adminctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/admin"
	healthctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/health"
	signupctrl "github.com/AbinJoseph007/new-member-api/internal/http/controllers/signup"
	"github.com/AbinJoseph007/new-member-api/internal/http/router"
	"github.com/AbinJoseph007/new-member-api/internal/metrics"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/otp"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	"github.com/AbinJoseph007/new-member-api/internal/rate"
	"github.com/AbinJoseph007/new-member-api/internal/reconcile"
	"github.com/AbinJoseph007/new-member-api/internal/signup"
	"github.com/AbinJoseph007/new-member-api/internal/store/adapters/memory"
	"github.com/AbinJoseph007/new-member-api/internal/store/adapters/pg"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, env vars override)")
	flag.Parse()

	// .env es opcional; en despliegues reales las vars vienen del entorno.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init(logger.Config{ServiceName: "new-member-api"})
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "new-member-api",
		Version:     version,
	})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Store ───
	var st core.Store
	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err := pg.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatal("postgres open failed", logger.Err(err))
		}
		st = pgStore
		log.Info("store ready", logger.String("driver", "postgres"))
	default:
		st = memory.New()
		log.Warn("using in-memory store, data is not persisted")
	}
	defer st.Close()

	// ─── Cache + rate limit ───
	var otpLimiter rate.Limiter = rate.Unlimited{}
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		log.Warn("cache unavailable, otp rate limiting disabled", logger.Err(err))
	} else {
		defer cacheClient.Close()
		otpLimiter = rate.NewWindowLimiter(cacheClient, "otp",
			cfg.OTP.ResendMax, config.Dur(cfg.OTP.ResendWindow, 15*time.Minute))
	}

	// ─── Email ───
	var sender email.Sender
	if cfg.SMTP.Host != "" {
		smtp := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.FromEmail, cfg.SMTP.Username, cfg.SMTP.Password)
		smtp.TLSMode = cfg.SMTP.TLSMode
		sender = smtp
	} else {
		log.Warn("smtp not configured, emails are logged only")
		sender = email.NopSender{}
	}
	opsNotifier := email.NewOpsNotifier(sender, cfg.Email.OpsAddress)

	// ─── Domain services ───
	dir := directory.New(st.Directory(), opsNotifier)
	otpSvc := otp.New(st.Signups())
	prov := provider.NewClient(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		KeyID:   cfg.Provider.KeyID,
		Secret:  cfg.Provider.Secret,
		Timeout: config.Dur(cfg.Provider.Timeout, 10*time.Second),
	})

	signupSvc := signup.New(signup.Deps{
		Signups:   st.Signups(),
		Profiles:  st.MemberProfiles(),
		Directory: dir,
		OTP:       otpSvc,
		Provider:  prov,
		Sender:    sender,
	})

	engine := reconcile.New(reconcile.Deps{
		Signups:            st.Signups(),
		Profiles:           st.MemberProfiles(),
		Directory:          dir,
		Provider:           prov,
		Sender:             sender,
		Interval:           config.Dur(cfg.Reconcile.Interval, time.Minute),
		MembershipInterval: config.Dur(cfg.Reconcile.MembershipInterval, 10*time.Minute),
		RecordTimeout:      config.Dur(cfg.Reconcile.RecordTimeout, 15*time.Second),
	})
	go engine.Run(ctx)

	// ─── HTTP ───
	metricsHandler := metrics.Register(prometheus.DefaultRegisterer)

	handler := router.New(router.Deps{
		Signup:          signupctrl.NewControllers(signupSvc),
		Health:          healthctrl.NewHealthController(st, version),
		Admin:           adminctrl.NewControllers(st.Signups(), engine),
		Metrics:         metricsHandler,
		OTPLimiter:      otpLimiter,
		AdminAPIKeyHash: cfg.Admin.APIKeyHash,
		AllowedOrigins:  cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.Dur(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.Dur(cfg.Server.WriteTimeout, 30*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", logger.Err(err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
	}
	log.Info("server stopped")
}
