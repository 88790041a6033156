package handlers

import (
	"net/http"

	"github.com/eshaffer321/backoffice-recon/internal/api/dto"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	*Base
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(svc *service.ReconcileService) *HealthHandler {
	return &HealthHandler{Base: NewBase(svc)}
}

// ServeHTTP handles the health check request. It always answers 200 so load
// balancers keep routing uploads while the store is down.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	persistent, err := h.svc.Ready(r.Context())
	h.WriteJSON(w, http.StatusOK, dto.NewHealthResponse(persistent, err))
}
