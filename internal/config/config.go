// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
		// Nivel de log: debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		FromEmail string `yaml:"from_email"`
		TLSMode   string `yaml:"tls_mode"` // auto | starttls | ssl | none
	} `yaml:"smtp"`

	Email struct {
		// OpsAddress recibe los avisos de data-quality (ambigüedad de
		// companyId). Vacío = solo log.
		OpsAddress string `yaml:"ops_address"`
	} `yaml:"email"`

	Provider struct {
		BaseURL string `yaml:"base_url"`
		KeyID   string `yaml:"key_id"`
		Secret  string `yaml:"secret"`
		Timeout string `yaml:"timeout"`
	} `yaml:"provider"`

	Reconcile struct {
		Interval           string `yaml:"interval"`
		MembershipInterval string `yaml:"membership_interval"`
		RecordTimeout      string `yaml:"record_timeout"`
	} `yaml:"reconcile"`

	OTP struct {
		// ResendMax / ResendWindow limitan la re-emisión por email.
		ResendMax    int    `yaml:"resend_max"`
		ResendWindow string `yaml:"resend_window"`
	} `yaml:"otp"`

	Admin struct {
		// APIKeyHash es el bcrypt hash de la API key de los endpoints
		// admin. Vacío = endpoints admin deshabilitados.
		APIKeyHash string `yaml:"api_key_hash"`
	} `yaml:"admin"`
}

// Load lee el YAML (si path no está vacío) y aplica overrides de env.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) defaults() {
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = "10s"
	c.Server.WriteTimeout = "30s"
	c.Storage.Driver = "memory"
	c.Cache.Kind = "memory"
	c.SMTP.Port = 587
	c.SMTP.TLSMode = "auto"
	c.Provider.Timeout = "10s"
	c.Reconcile.Interval = "1m"
	c.Reconcile.MembershipInterval = "10m"
	c.Reconcile.RecordTimeout = "15s"
	c.OTP.ResendMax = 5
	c.OTP.ResendWindow = "15m"
}

// applyEnv pisa valores con variables de entorno (para despliegues sin YAML).
func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.App.LogLevel, "LOG_LEVEL")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitCSV(v)
	}
	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "STORAGE_DSN")
	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Cache.Redis.DB, "REDIS_DB")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.FromEmail, "SMTP_FROM_EMAIL")
	setStr(&c.SMTP.TLSMode, "SMTP_TLS_MODE")
	setStr(&c.Email.OpsAddress, "EMAIL_OPS_ADDRESS")
	setStr(&c.Provider.BaseURL, "PROVIDER_BASE_URL")
	setStr(&c.Provider.KeyID, "PROVIDER_KEY_ID")
	setStr(&c.Provider.Secret, "PROVIDER_SECRET")
	setStr(&c.Provider.Timeout, "PROVIDER_TIMEOUT")
	setStr(&c.Reconcile.Interval, "RECONCILE_INTERVAL")
	setStr(&c.Reconcile.MembershipInterval, "RECONCILE_MEMBERSHIP_INTERVAL")
	setStr(&c.Reconcile.RecordTimeout, "RECONCILE_RECORD_TIMEOUT")
	setInt(&c.OTP.ResendMax, "OTP_RESEND_MAX")
	setStr(&c.OTP.ResendWindow, "OTP_RESEND_WINDOW")
	setStr(&c.Admin.APIKeyHash, "ADMIN_API_KEY_HASH")
}

func setStr(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dur parsea una duración con fallback.
func Dur(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
