package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Authorizer is the slice of the permission engine route guards use.
// Satisfied by *permissions.Engine.
type Authorizer interface {
	HasResourcePermission(userID int64, resourceType permissions.ResourceType, action permissions.Action, resourceID *int64) (bool, error)
	HasRole(userID int64, allowed ...permissions.Role) (bool, error)
}

// RequireRole rejects callers whose active role is not in the allowed set.
// Superusers always pass. The per-instance checks stay in the services;
// this guard only fences whole route groups.
func RequireRole(authz Authorizer, roles ...permissions.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := internal.UserIDFromContext(r.Context())
			if userID == 0 {
				writeDenied(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			allowed, err := authz.HasRole(userID, roles...)
			if err != nil {
				logger.From(r.Context()).Error("role check failed", "error", err, "user_id", userID)
				writeDenied(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				logger.From(r.Context()).Warn("access denied: role not allowed",
					"user_id", userID, "path", r.URL.Path)
				writeDenied(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireResourcePermission gates a route group on a type-level engine
// decision (no instance id, the list/create context).
func RequireResourcePermission(authz Authorizer, resourceType permissions.ResourceType, action permissions.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := internal.UserIDFromContext(r.Context())
			if userID == 0 {
				writeDenied(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			allowed, err := authz.HasResourcePermission(userID, resourceType, action, nil)
			if err != nil {
				logger.From(r.Context()).Error("permission check failed",
					"error", err, "user_id", userID, "resource_type", resourceType, "action", action)
				writeDenied(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				logger.From(r.Context()).Warn("access denied",
					"user_id", userID, "resource_type", resourceType, "action", action)
				writeDenied(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	})
}
