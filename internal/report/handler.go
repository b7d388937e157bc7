package report

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/qu-security/guardforce/internal/auth"
	"github.com/qu-security/guardforce/internal/transport"
	"github.com/qu-security/guardforce/pkg/logger"
)

type ServiceAPI interface {
	Models(callerID int64) ([]Model, error)
	Export(callerID int64, modelName string, w io.Writer) error
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

// ListModels handles GET /reports
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	out, err := h.Service.Models(caller.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"models": out,
		"count":  len(out),
	})
}

// Export handles GET /reports/{model}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	modelName := chi.URLParam(r, "model")

	// Headers go out before the stream starts; a failure mid-stream can
	// only truncate the file, not change the status code.
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", modelName+".csv"))

	if err := h.Service.Export(caller.ID, modelName, w); err != nil {
		h.HandleServiceError(w, err)
		return
	}
}
