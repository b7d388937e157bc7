package shift

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
	List(callerID int64, q listing.Query, f Filter) ([]*Shift, error)
	GetByID(callerID int64, id int64) (*Shift, error)
	Create(callerID int64, dto *CreateShiftDTO) (*Shift, error)
	Update(callerID int64, id int64, dto *UpdateShiftDTO) (*Shift, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
	NextShift(guardID int64) (*Shift, error)
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

// ListShifts handles GET /shifts
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shifts, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()), Filter{})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shifts": shifts,
		"count":  len(shifts),
	})
}

// GetShift handles GET /shifts/{id}
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.shiftIDParam(w, r)
	if !ok {
		return
	}

	sh, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sh)
}

// CreateShift handles POST /shifts
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateShift: invalid request body", "error", err)
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

// UpdateShift handles PATCH /shifts/{id}
func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.shiftIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateShift: invalid request body", "error", err)
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

// DeleteShift handles DELETE /shifts/{id}. Soft delete.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.shiftIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreShift handles POST /shifts/{id}/restore
func (h *Handler) RestoreShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.shiftIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ByGuard handles GET /shifts/by-guard?guard_id=N
func (h *Handler) ByGuard(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, "guard_id", func(id int64) Filter {
		return Filter{GuardID: &id}
	})
}

// ByProperty handles GET /shifts/by-property?property_id=N
func (h *Handler) ByProperty(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, "property_id", func(id int64) Filter {
		return Filter{PropertyID: &id}
	})
}

// ByService handles GET /shifts/by-service?service_id=N
func (h *Handler) ByService(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, "service_id", func(id int64) Filter {
		return Filter{ServiceID: &id}
	})
}

// NextShift handles GET /shifts/next-shift?guard_id=N
func (h *Handler) NextShift(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	guardID, ok := h.requiredIDQuery(w, r, "guard_id")
	if !ok {
		return
	}

	sh, err := h.Service.NextShift(guardID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sh)
}

func (h *Handler) listFiltered(w http.ResponseWriter, r *http.Request, param string, build func(int64) Filter) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.requiredIDQuery(w, r, param)
	if !ok {
		return
	}

	shifts, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()), build(id))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shifts": shifts,
		"count":  len(shifts),
	})
}

func (h *Handler) requiredIDQuery(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		h.WriteError(w, http.StatusBadRequest, param+" parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}

func (h *Handler) shiftIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid shift id")
		return 0, false
	}
	return id, true
}
