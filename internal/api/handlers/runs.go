package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
)

// RunsHandler handles run-related HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(svc *service.ReconcileService) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(svc),
	}
}

// maxRunsLimit caps the page size of GET /api/runs
const maxRunsLimit = 200

// List handles GET /api/runs - returns stored runs, newest first. Runs that
// were never persisted are only reachable by ID.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)
	if limit <= 0 || limit > maxRunsLimit {
		h.WriteError(w, http.StatusBadRequest,
			dto.ValidationError(fmt.Sprintf("limit must be between 1 and %d", maxRunsLimit)))
		return
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		h.WriteServiceError(w, err, "runs")
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}

	for _, run := range runs {
		response.Runs = append(response.Runs, dto.NewRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run by ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		h.WriteServiceError(w, err, "run")
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.NewRunResponse(run))
}
