package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qu-security/guardforce/pkg/logger"
)

// sensitiveParams are query parameter names that never reach the log.
var sensitiveParams = []string{
	"password",
	"token",
	"access_token",
	"refresh_token",
	"secret",
	"api_key",
}

// Logging emits one structured line per request: method, path, redacted
// query, caller, status, duration and response size. Request and response
// bodies are never logged; credentials travel in bodies.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lw, r)

			level := slog.LevelInfo
			switch {
			case lw.status >= 500:
				level = slog.LevelError
			case lw.status >= 400:
				level = slog.LevelWarn
			}

			logger.From(r.Context()).Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", redactQuery(r.URL.Query()),
				"remote_addr", r.RemoteAddr,
				"status", lw.status,
				"bytes", lw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func redactQuery(values map[string][]string) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(values))
	for name, vals := range values {
		lower := strings.ToLower(name)
		redacted := false
		for _, s := range sensitiveParams {
			if strings.Contains(lower, s) {
				redacted = true
				break
			}
		}
		if redacted {
			parts = append(parts, name+"=[REDACTED]")
			continue
		}
		parts = append(parts, name+"="+strings.Join(vals, ","))
	}
	return strings.Join(parts, "&")
}

type loggingWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *loggingWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
