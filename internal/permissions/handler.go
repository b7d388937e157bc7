package permissions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/transport"
	"github.com/qu-security/guardforce/pkg/logger"
)

type ServiceAPI interface {
	IsAdmin(userID int64) (bool, error)
	ListUsersWithPermissions() (*UserListResponse, error)
	AssignRole(dto AssignRoleDTO, performedBy int64) (*RoleAssignmentResponse, error)
	GrantResourcePermission(dto GrantResourcePermissionDTO, performedBy int64) (*GrantResponse, error)
	RevokeResourcePermission(dto RevokeResourcePermissionDTO, performedBy int64) (*RevokeResponse, error)
	GrantPropertyAccess(dto GrantPropertyAccessDTO, performedBy int64) (*PropertyAccessResponse, error)
	RevokePropertyAccess(dto RevokePropertyAccessDTO, performedBy int64) (*RevokeAccessResponse, error)
	AuditLog(query AuditQuery) (*AuditLogResponse, error)
	BulkUpdate(dto BulkPermissionUpdateDTO, performedBy int64) (*BulkUpdateResponse, error)
	AvailableOptions() *AvailableOptionsResponse
}

// Handler exposes the admin permission management endpoints. Every route
// re-checks admin privileges against the store; the token snapshot is
// never trusted.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// requireAdmin resolves the caller and rejects non-admins. It returns the
// caller's user id and whether the request may proceed.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == 0 {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}

	isAdmin, err := h.Service.IsAdmin(userID)
	if err != nil {
		h.Logger.Error("admin check failed", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return 0, false
	}
	if !isAdmin {
		h.Logger.Warn("admin endpoint denied", "user_id", userID, "path", r.URL.Path)
		h.WriteError(w, http.StatusForbidden, "Admin privileges required")
		return 0, false
	}
	return userID, true
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Admin Permission Management API",
		"available_endpoints": []string{
			"users",
			"assign-role",
			"grant-resource",
			"revoke-resource",
			"grant-property-access",
			"revoke-property-access",
			"audit-log",
			"bulk-update",
			"options",
		},
		"description": "API for managing user roles, grants, and property access",
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	resp, err := h.Service.ListUsersWithPermissions()
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AssignRole: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.AssignRole(dto, adminID)
	if err != nil {
		h.Logger.Error("AssignRole: service error", "error", err, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GrantResourcePermission(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto GrantResourcePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("GrantResourcePermission: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.GrantResourcePermission(dto, adminID)
	if err != nil {
		h.Logger.Error("GrantResourcePermission: service error", "error", err, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RevokeResourcePermission(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto RevokeResourcePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RevokeResourcePermission: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.RevokeResourcePermission(dto, adminID)
	if err != nil {
		h.Logger.Error("RevokeResourcePermission: service error", "error", err, "permission_id", dto.PermissionID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GrantPropertyAccess(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto GrantPropertyAccessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("GrantPropertyAccess: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.GrantPropertyAccess(dto, adminID)
	if err != nil {
		h.Logger.Error("GrantPropertyAccess: service error", "error", err,
			"user_id", dto.UserID, "property_id", dto.PropertyID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RevokePropertyAccess(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto RevokePropertyAccessDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RevokePropertyAccess: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.RevokePropertyAccess(dto, adminID)
	if err != nil {
		h.Logger.Error("RevokePropertyAccess: service error", "error", err, "access_id", dto.AccessID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	query := AuditQuery{
		PermissionType: r.URL.Query().Get("permission_type"),
		Action:         r.URL.Query().Get("action"),
	}
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		query.UserID = &userID
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			query.Limit = limit
		}
	}

	resp, err := h.Service.AuditLog(query)
	if err != nil {
		h.Logger.Error("AuditLog: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var dto BulkPermissionUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("BulkUpdate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.BulkUpdate(dto, adminID)
	if err != nil {
		h.Logger.Error("BulkUpdate: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AvailableOptions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.AvailableOptions())
}
