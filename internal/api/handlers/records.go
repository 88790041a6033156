package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

// RecordsHandler handles record listing for a run.
type RecordsHandler struct {
	*Base
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(svc *service.ReconcileService) *RecordsHandler {
	return &RecordsHandler{
		Base: NewBase(svc),
	}
}

// List handles GET /api/runs/{id}/records with optional side, status,
// search, limit and offset filters.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	q := r.URL.Query()
	filter := storage.RecordFilter{
		RunID:  id,
		Side:   record.Side(q.Get("side")),
		Status: record.Status(q.Get("status")),
		Search: q.Get("search"),
		Limit:  ParseIntParam(r, "limit", storage.DefaultRecordLimit),
		Offset: ParseIntParam(r, "offset", 0),
	}
	if filter.Side != record.SideUnset && !filter.Side.Valid() {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("unknown side: "+string(filter.Side)))
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("unknown status: "+string(filter.Status)))
		return
	}

	page, err := h.svc.Records(r.Context(), filter)
	if err != nil {
		h.WriteServiceError(w, err, "run")
		return
	}

	response := dto.RecordListResponse{
		Records:    make([]dto.RecordResponse, 0, len(page.Records)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for _, rec := range page.Records {
		response.Records = append(response.Records, dto.NewRecordResponse(rec))
	}

	h.WriteJSON(w, http.StatusOK, response)
}
