package handlers

import (
	"net/http"
	"time"

	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

var startTime = time.Now()

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
}

// NewHealthHandlers constructs the probe handlers. A nil system service makes
// readiness always succeed.
func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether the backing store answers.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system != nil {
		if err := h.system.Ready(r.Context()); err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("not_ready", "backing store unreachable", http.StatusServiceUnavailable))
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
