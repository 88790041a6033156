package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
)

// ExportHandler streams a run's records as CSV or XLSX.
type ExportHandler struct {
	*Base
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ReconcileService) *ExportHandler {
	return &ExportHandler{
		Base: NewBase(svc),
	}
}

// Get handles GET /api/runs/{id}/export?format=csv|xlsx.
func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	format, err := tabular.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	// Buffer so a failed export can still return a JSON error
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), id, format, &buf); err != nil {
		h.WriteServiceError(w, err, "run")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="run-%s.%s"`, id, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
