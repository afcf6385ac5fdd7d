package handlers

import (
	"net/http"

	"journals-backend/infrastructure/persistence/connection"
	"journals-backend/pkg/common"
)

// ConnectionStatus reports the record store connection state
type ConnectionStatus interface {
	Stats() connection.Stats
}

// HealthResponse is the body of /health and /ready
type HealthResponse struct {
	Status     string           `json:"status"`
	Connection connection.Stats `json:"connection"`
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	status ConnectionStatus
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(status ConnectionStatus) *HealthHandler {
	return &HealthHandler{status: status}
}

// Health handles GET /health. It never touches the record store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Connection: h.status.Stats(),
	})
}

// Ready handles GET /ready. It sits behind the connection gate, so reaching
// it means the store is connected.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:     "ready",
		Connection: h.status.Stats(),
	})
}
