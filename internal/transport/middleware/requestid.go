package middleware

import (
	"net/http"

	"github.com/qu-security/guardforce/pkg/logger"

	"github.com/google/uuid"
)

// RequestID accepts a caller-provided X-Request-ID or mints a fresh uuid,
// attaches it to the context logger and echoes it on the response so
// clients can correlate their reports with the server log.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
