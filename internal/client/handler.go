package client

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
	List(callerID int64, q listing.Query) ([]*Client, error)
	GetByID(callerID int64, id int64) (*Client, error)
	Create(callerID int64, dto *CreateClientDTO) (*Client, error)
	Update(callerID int64, id int64, dto *UpdateClientDTO) (*Client, error)
	Delete(callerID int64, id int64) error
	Restore(callerID int64, id int64) error
	OwnedProperties(callerID int64, clientID int64) ([]*OwnedProperty, error)
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

// ListClients handles GET /clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	clients, err := h.Service.List(caller.ID, listing.Parse(r.URL.Query()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

// GetClient handles GET /clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.clientIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.Service.GetByID(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// CreateClient handles POST /clients. The new client gets a user account
// derived from the supplied email.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateClient: invalid request body", "error", err)
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

// UpdateClient handles PATCH /clients/{id}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.clientIDParam(w, r)
	if !ok {
		return
	}

	var dto UpdateClientDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateClient: invalid request body", "error", err)
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

// DeleteClient handles DELETE /clients/{id}. Soft delete; the profile can
// be restored later.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.clientIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreClient handles POST /clients/{id}/restore
func (h *Handler) RestoreClient(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.clientIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Restore(caller.ID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ListClientProperties handles GET /clients/{id}/properties
func (h *Handler) ListClientProperties(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.clientIDParam(w, r)
	if !ok {
		return
	}

	properties, err := h.Service.OwnedProperties(caller.ID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"properties": properties,
		"count":      len(properties),
	})
}

func (h *Handler) clientIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid client ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid client ID")
		return 0, false
	}
	return id, true
}
