package service

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
	List(callerID int64, q listing.Query, f Filter) ([]*GuardService, error)
	GetByID(callerID int64, id int64) (*GuardService, error)
	Create(callerID int64, dto *CreateServiceDTO) (*GuardService, error)
	Update(callerID int64, id int64, dto *UpdateServiceDTO) (*GuardService, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
	Shifts(callerID int64, id int64) ([]*ServiceShift, error)
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

// ListServices handles GET /services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	services, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()), Filter{})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeServices(w, services)
}

// GetService handles GET /services/{id}
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.serviceIDParam(w, r)
	if !ok {
		return
	}

	gs, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gs)
}

// CreateService handles POST /services
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateServiceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gs, err := h.Service.Create(caller.ID, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, gs)
}

// UpdateService handles PUT and PATCH /services/{id}
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.serviceIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateServiceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gs, err := h.Service.Update(caller.ID, id, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, gs)
}

// DeleteService handles DELETE /services/{id}
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.serviceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreService handles POST /services/{id}/restore
func (h *Handler) RestoreService(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.serviceIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ListServiceShifts handles GET /services/{id}/shifts
func (h *Handler) ListServiceShifts(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.serviceIDParam(w, r)
	if !ok {
		return
	}

	shifts, err := h.Service.Shifts(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"shifts": shifts,
		"count":  len(shifts),
	})
}

// ByProperty handles GET /services/by-property
func (h *Handler) ByProperty(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, "property_id", func(id int64) Filter {
		return Filter{PropertyID: &id}
	})
}

// ByGuard handles GET /services/by-guard
func (h *Handler) ByGuard(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, "guard_id", func(id int64) Filter {
		return Filter{GuardID: &id}
	})
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

	services, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()), build(id))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeServices(w, services)
}

func (h *Handler) writeServices(w http.ResponseWriter, services []*GuardService) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
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

func (h *Handler) serviceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid service id")
		return 0, false
	}
	return id, true
}
