package tariff

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
	List(callerID int64, q listing.Query, f Filter) ([]*Tariff, error)
	GetByID(callerID int64, id int64) (*Tariff, error)
	Create(callerID int64, dto *CreateTariffDTO) (*Tariff, error)
	Update(callerID int64, id int64, dto *UpdateTariffDTO) (*Tariff, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
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

// ListTariffs handles GET /tariffs
func (h *Handler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, Filter{})
}

// GetTariff handles GET /tariffs/{id}
func (h *Handler) GetTariff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.tariffIDParam(w, r)
	if !ok {
		return
	}

	t, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// CreateTariff handles POST /tariffs
func (h *Handler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateTariffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTariff: invalid request body", "error", err)
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

// UpdateTariff handles PATCH /tariffs/{id}
func (h *Handler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.tariffIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateTariffDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateTariff: invalid request body", "error", err)
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

// DeleteTariff handles DELETE /tariffs/{id}. Retires the tariff.
func (h *Handler) DeleteTariff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.tariffIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreTariff handles POST /tariffs/{id}/restore
func (h *Handler) RestoreTariff(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.tariffIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ByGuard handles GET /tariffs/by-guard?guard_id=N
func (h *Handler) ByGuard(w http.ResponseWriter, r *http.Request) {
	guardID, ok := h.requiredIDQuery(w, r, "guard_id")
	if !ok {
		return
	}
	h.listFiltered(w, r, Filter{GuardID: &guardID})
}

// ByProperty handles GET /tariffs/by-property?property_id=N
func (h *Handler) ByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := h.requiredIDQuery(w, r, "property_id")
	if !ok {
		return
	}
	h.listFiltered(w, r, Filter{PropertyID: &propertyID})
}

func (h *Handler) listFiltered(w http.ResponseWriter, r *http.Request, f Filter) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tariffs, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()), f)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tariffs": tariffs,
		"count":   len(tariffs),
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

func (h *Handler) tariffIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid tariff id")
		return 0, false
	}
	return id, true
}
