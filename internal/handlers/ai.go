package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tphummel/server_inventory/internal/assistant"
	"github.com/tphummel/server_inventory/internal/logging"
)

// writeAssistantError hides model failures behind a generic message.
func writeAssistantError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, assistant.ErrDisabled) {
		writeError(w, http.StatusServiceUnavailable, "AI assistant is not configured")
		return
	}
	logging.FromContext(r.Context()).Error(msg, "error", err)
	writeError(w, http.StatusBadGateway, msg)
}

// Analyze handles POST /api/v1/assistant/analyze. The body is
// {"prompt": "..."}; the answer covers the whole inventory.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	answer, err := h.assist().Analyze(r.Context(), h.Store.List(), req.Prompt)
	if err != nil {
		writeAssistantError(w, r, err, "AI analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
