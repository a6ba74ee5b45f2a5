package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

const (
	healthStatusHealthy = "healthy"
	healthStatusOK      = "ok"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthzHandler handles liveness probes (/healthz)
func (h *Handler) healthzHandler(w http.ResponseWriter, r *http.Request) {
	h.renderJSON(w, r, http.StatusOK, HealthResponse{Status: healthStatusOK})
}

// readyzHandler handles readiness probes (/readyz)
// Checks the session store and that the picker service answers, and reports
// the number of live viewer sessions
func (h *Handler) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.container.Store().Health(ctx); err != nil {
		checks["session_store"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["session_store"] = healthStatusHealthy
	}

	if err := h.picker.Ping(ctx); err != nil {
		checks["picker"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["picker"] = healthStatusHealthy
	}

	checks["live_sessions"] = strconv.Itoa(h.registry.Len())

	response := HealthResponse{
		Status: healthStatusOK,
		Checks: checks,
	}
	status := http.StatusOK
	if !allHealthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	h.renderJSON(w, r, status, response)
}
