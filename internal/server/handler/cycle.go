package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// CycleHandler serves the pipeline trigger endpoint.
type CycleHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{} // when non-nil, sending triggers one cycle
}

// NewCycleHandler creates a CycleHandler with the given logger.
func NewCycleHandler(logger *slog.Logger) *CycleHandler {
	return &CycleHandler{logger: logger.With(slog.String("handler", "cycle"))}
}

// WithTriggerChannel sets the channel to send on when a trigger is requested.
// The pipeline loop must receive from this channel to run one cycle.
func (h *CycleHandler) WithTriggerChannel(ch chan<- struct{}) *CycleHandler {
	h.triggerCh = ch
	return h
}

// Trigger enqueues one pipeline cycle. The send is non-blocking: a
// trigger that is already pending is not queued twice.
// POST /api/cycle/trigger
func (h *CycleHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.triggerCh == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline is not running in this mode")
		return
	}

	h.logger.InfoContext(r.Context(), "cycle trigger requested")
	select {
	case h.triggerCh <- struct{}{}:
	default:
		// already triggered and not yet consumed
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "cycle trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
