package property

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
	List(callerID int64, q listing.Query) ([]*Property, error)
	GetByID(callerID int64, id int64) (*Detail, error)
	Create(callerID int64, dto *CreatePropertyDTO) (*Property, error)
	Update(callerID int64, id int64, dto *UpdatePropertyDTO) (*Property, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
	Shifts(callerID int64, id int64) ([]*ShiftSummary, error)
	Expenses(callerID int64, id int64) ([]*ExpenseSummary, error)
	GuardsShifts(callerID int64, id int64) (*Staffing, error)
	Types() ([]*TypeOption, error)
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

// ListProperties handles GET /properties
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	properties, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"properties": properties,
		"count":      len(properties),
	})
}

// GetProperty handles GET /properties/{id}
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// CreateProperty handles POST /properties
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreatePropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateProperty: invalid request body", "error", err)
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

// UpdateProperty handles PATCH /properties/{id}
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdatePropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateProperty: invalid request body", "error", err)
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

// DeleteProperty handles DELETE /properties/{id}. Soft delete.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreProperty handles POST /properties/{id}/restore
func (h *Handler) RestoreProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ListPropertyShifts handles GET /properties/{id}/shifts
func (h *Handler) ListPropertyShifts(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
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

// ListPropertyExpenses handles GET /properties/{id}/expenses
func (h *Handler) ListPropertyExpenses(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	expenses, err := h.Service.Expenses(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"count":    len(expenses),
	})
}

// GetGuardsShifts handles GET /properties/{id}/guards-shifts
func (h *Handler) GetGuardsShifts(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.propertyIDParam(w, r)
	if !ok {
		return
	}

	staffing, err := h.Service.GuardsShifts(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, staffing)
}

// ListPropertyTypes handles GET /property-types
func (h *Handler) ListPropertyTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	types, err := h.Service.Types()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"property_types": types,
		"count":          len(types),
	})
}

func (h *Handler) propertyIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid property ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid property ID")
		return 0, false
	}
	return id, true
}
