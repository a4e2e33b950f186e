package middlewares

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	httperrors "github.com/AbinJoseph007/new-member-api/internal/http/errors"
)

// WithAdminKey protege endpoints admin comparando X-Admin-API-Key contra
// un bcrypt hash de configuración. Hash vacío = endpoints deshabilitados.
func WithAdminKey(apiKeyHash string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKeyHash == "" {
				httperrors.WriteError(w, httperrors.ErrNotFound)
				return
			}
			key := strings.TrimSpace(r.Header.Get("X-Admin-API-Key"))
			if key == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)); err != nil {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
