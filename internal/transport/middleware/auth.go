package middleware

import (
	"net/http"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/pkg/logger"
)

// UserContext enriches the context logger with the authenticated user id.
// Mount it after the auth middleware; anonymous requests pass unchanged.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := internal.UserIDFromContext(r.Context())
		if userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
