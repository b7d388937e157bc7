package guard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/qu-security/guardforce/internal/auth"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/transport"
	"github.com/qu-security/guardforce/pkg/logger"
)

type ServiceAPI interface {
	List(callerID int64, q listing.Query) ([]*Guard, error)
	GetByID(callerID int64, id int64) (*Detail, error)
	Create(callerID int64, dto *CreateGuardDTO) (*Guard, error)
	Update(callerID int64, id int64, dto *UpdateGuardDTO) (*Guard, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
	PropertiesShifts(callerID int64, id int64) (*Workload, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListGuards handles GET /guards
func (h *Handler) ListGuards(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	guards, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"guards": guards,
		"count":  len(guards),
	})
}

// GetGuard handles GET /guards/{id}
func (h *Handler) GetGuard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	g, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, g)
}

// CreateGuard handles POST /guards. Either names an existing user or
// brings its own email for a generated account.
func (h *Handler) CreateGuard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateGuardDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateGuard: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.Create(caller.ID, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// UpdateGuard handles PATCH /guards/{id}
func (h *Handler) UpdateGuard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateGuardDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateGuard: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.Update(caller.ID, id, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}

// DeleteGuard handles DELETE /guards/{id}. Soft delete.
func (h *Handler) DeleteGuard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreGuard handles POST /guards/{id}/restore
func (h *Handler) RestoreGuard(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// GetPropertiesShifts handles GET /guards/{id}/properties-shifts
func (h *Handler) GetPropertiesShifts(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	workload, err := h.Service.PropertiesShifts(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, workload)
}

func (h *Handler) guardIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid guard ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid guard ID")
		return 0, false
	}
	return id, true
}
