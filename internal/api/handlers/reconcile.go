package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
)

// Multipart form memory before spilling files to disk
const maxMultipartMemory = 8 << 20

// ReconcileHandler accepts uploads and runs reconciliations.
type ReconcileHandler struct {
	*Base
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{
		Base: NewBase(svc),
	}
}

// Create handles POST /api/reconciliations.
// Expects a multipart form with a "mode" field and "left" and "right" files.
func (h *ReconcileHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.WriteError(w, http.StatusRequestEntityTooLarge, dto.TooLargeError("upload exceeds the size limit"))
			return
		}
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	mode := r.FormValue("mode")
	if mode == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("mode is required"))
		return
	}

	left, leftHeader, err := r.FormFile("left")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("left file is required"))
		return
	}
	defer closeFile(left)

	right, rightHeader, err := r.FormFile("right")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("right file is required"))
		return
	}
	defer closeFile(right)

	run, err := h.svc.Reconcile(r.Context(), service.Request{
		Mode:  mode,
		Left:  service.Input{Name: leftHeader.Filename, Reader: left},
		Right: service.Input{Name: rightHeader.Filename, Reader: right},
		Save:  true,
	})
	if err != nil {
		h.WriteServiceError(w, err, "run")
		return
	}

	response := dto.ReconcileResponse{
		Run:       dto.NewRunResponse(run.Info()),
		Summary:   run.Outcome.Summary,
		Balance:   run.Outcome.Balance,
		Persisted: run.Persisted,
	}
	for _, inv := range run.Outcome.Invalid {
		response.Invalid = append(response.Invalid, dto.InvalidResponse{
			Position: inv.Position,
			Reason:   inv.Err.Error(),
		})
	}

	h.WriteJSON(w, http.StatusCreated, response)
}

func closeFile(f multipart.File) {
	_ = f.Close()
}
