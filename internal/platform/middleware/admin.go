package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"medidrop/pkg/requestcontext"
)

const adminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards admin routes with a shared token. An empty
// configured token disables the admin surface entirely.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(adminTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logger.WarnContext(r.Context(), "admin access denied",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			ctx := requestcontext.WithActorID(r.Context(), "admin")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
