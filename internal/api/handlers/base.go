package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/eshaffer321/backoffice-recon/internal/adapters/tabular"
	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc *service.ReconcileService
}

// NewBase creates a new base handler with the given service.
func NewBase(svc *service.ReconcileService) *Base {
	return &Base{svc: svc}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps service and domain errors to API errors.
func (b *Base) WriteServiceError(w http.ResponseWriter, err error, resource string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, service.ErrTooLarge), errors.As(err, &maxBytes):
		b.WriteError(w, http.StatusRequestEntityTooLarge, dto.TooLargeError(err.Error()))
	case errors.Is(err, tabular.ErrUnsupportedFormat):
		b.WriteError(w, http.StatusUnsupportedMediaType, dto.UnsupportedFormatError(err.Error()))
	case errors.Is(err, tabular.ErrSheetNotFound), errors.Is(err, tabular.ErrNoHeader),
		errors.Is(err, record.ErrInvalidInput):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}
