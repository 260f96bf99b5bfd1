package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"starset-backend/middleware"
	"starset-backend/models"
	"starset-backend/storage"
)

// HealthHandler reports service and store health.
type HealthHandler struct {
	store storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.store.Ping(r.Context()); err != nil {
		middleware.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.HealthResponse{
		Status:    "ok",
		Message:   "starset backend running",
		Timestamp: time.Now().Unix(),
	})
}
