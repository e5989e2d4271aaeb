package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tphummel/server_inventory/internal/assistant"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/logging"
)

// maxJSONBody bounds request bodies on the CRUD and bulk endpoints.
const maxJSONBody = 64 * 1024

// defaultMaxUpload bounds import bodies when Handler.MaxUploadBytes is unset.
const defaultMaxUpload = 10 << 20

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping() error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Store     *inventory.Store
	DB        Pinger
	Assistant assistant.Assistant

	// MaxUploadBytes bounds text and spreadsheet imports.
	MaxUploadBytes int64

	Version string
	Commit  string
}

func (h *Handler) uploadLimit() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return defaultMaxUpload
}

func (h *Handler) assist() assistant.Assistant {
	if h.Assistant == nil {
		return assistant.Disabled{}
	}
	return h.Assistant
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON body of at most limit bytes into v. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// readBody reads the whole body, bounded by limit. On failure it writes the
// error response and returns false.
func readBody(w http.ResponseWriter, r io.Reader) ([]byte, bool) {
	data, err := io.ReadAll(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	return data, true
}

// writeStoreError maps inventory errors to responses. what names the entity
// for not-found messages; action describes the failed operation.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, what, action string) {
	var ve *inventory.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	default:
		logging.FromContext(r.Context()).Error("store operation failed", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// Health handles GET /healthz. It requires no auth.
// Returns 503 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}
