package handlers

import (
	"context"
	"net/http"
	"time"

	"preflight/internal/httpkit"
)

const healthCheckTimeout = 5 * time.Second

// Health reports liveness. With ?deep=true every registered dependency is probed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "preflight-api",
		"version": h.version,
	}

	if r.URL.Query().Get("deep") == "true" {
		checks, ok := h.deepHealthCheck(ctx)
		health["checks"] = checks
		if !ok {
			health["status"] = "degraded"
			log.Warn("health check degraded", "checks", checks)
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) (map[string]any, bool) {
	checks := make(map[string]any, len(h.checks)+1)
	healthy := true

	for name, check := range h.checks {
		result := runCheck(ctx, check)
		if result["status"] != "ok" {
			healthy = false
		}
		checks[name] = result
	}

	checks["storage"] = map[string]any{
		"status":   "ok",
		"provider": h.provider,
	}
	return checks, healthy
}

func runCheck(ctx context.Context, check HealthCheck) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := check(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
