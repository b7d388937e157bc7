package location

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/qu-security/guardforce/internal/auth"
	"github.com/qu-security/guardforce/internal/transport"
	"github.com/qu-security/guardforce/pkg/logger"
)

type ServiceAPI interface {
	Update(ctx context.Context, callerID int64, guardID int64, dto *UpdateLocationDTO) (*Location, error)
	Get(ctx context.Context, callerID int64, guardID int64) (*Location, error)
	All(ctx context.Context, callerID int64) ([]*Location, error)
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

// UpdateLocation handles PUT /guards/{id}/location
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	guardID, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateLocationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateLocation: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loc, err := h.Service.Update(r.Context(), caller.ID, guardID, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, loc)
}

// GetLocation handles GET /guards/{id}/location
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	guardID, ok := h.guardIDParam(w, r)
	if !ok {
		return
	}

	loc, err := h.Service.Get(r.Context(), caller.ID, guardID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, loc)
}

// ListLocations handles GET /guards/locations
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	locations, err := h.Service.All(r.Context(), caller.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"locations": locations,
		"count":     len(locations),
	})
}

func (h *Handler) guardIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid guard id")
		return 0, false
	}
	return id, true
}
