package handlers

import (
	"net/http"

	"cart-sync-api/internal/models"
)

// HealthHandler handles health check requests
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Service: "cart-sync-api",
	})
}
