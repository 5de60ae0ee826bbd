package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports process liveness plus the run mode and storage
// backend, so a dashboard can tell a serve-only replica from a full
// tracker at a glance.
type HealthHandler struct {
	mode      string
	storage   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler for the given run mode and
// storage backend.
func NewHealthHandler(mode, storage string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		mode:      mode,
		storage:   storage,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// HealthCheck responds with liveness and deployment shape.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(h.startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"mode":           h.mode,
		"storage":        h.storage,
		"uptime_seconds": uptime,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
