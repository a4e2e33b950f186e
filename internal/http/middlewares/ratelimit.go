package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/rate"
)

// KeyFunc extrae la key de rate limiting de un request.
type KeyFunc func(r *http.Request) string

// IPKey limita por IP remota.
func IPKey(r *http.Request) string {
	return "ip:" + r.RemoteAddr
}

// EmailKey limita por el campo email del body JSON, cayendo a IP si el
// body no trae uno. El body se restaura para el handler siguiente.
func EmailKey(r *http.Request) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return IPKey(r)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || strings.TrimSpace(probe.Email) == "" {
		return IPKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(probe.Email))
}

// WithRateLimit corta con 429 + Retry-After cuando el limiter dice no.
// Un error del limiter no bloquea el request (fail-open, solo log).
func WithRateLimit(limiter rate.Limiter, keyFn KeyFunc) Middleware {
	if keyFn == nil {
		keyFn = IPKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), keyFn(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if secs := int(res.RetryAfter.Seconds()); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				httperrors.WriteError(w, httperrors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
