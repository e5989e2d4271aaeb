package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/models"
)

// ListServers handles GET /api/v1/servers. Optional filters: q (search),
// os, backup (Yes|No), flag and value (dashboard drill-down).
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := inventory.Query{
		Search: qs.Get("q"),
		OS:     qs.Get("os"),
		Backup: qs.Get("backup"),
		Flag:   qs.Get("flag"),
		Value:  qs.Get("value"),
	}
	if q.OS != "" && q.OS != "All" && !models.ValidOS[models.OSFamily(q.OS)] {
		writeError(w, http.StatusBadRequest, "invalid os")
		return
	}
	switch q.Backup {
	case "", "All", "Yes", "No":
	default:
		writeError(w, http.StatusBadRequest, "invalid backup filter")
		return
	}
	if q.Flag != "" && !inventory.ValidFlags[q.Flag] {
		writeError(w, http.StatusBadRequest, "invalid flag")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Filter(q))
}

// CreateServer handles POST /api/v1/servers.
func (h *Handler) CreateServer(w http.ResponseWriter, r *http.Request) {
	var req models.Server
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	srv, err := h.Store.Create(req)
	if err != nil {
		writeStoreError(w, r, err, "server", "create server")
		return
	}
	writeJSON(w, http.StatusCreated, srv)
}

// GetServer handles GET /api/v1/servers/{id}.
func (h *Handler) GetServer(w http.ResponseWriter, r *http.Request) {
	srv, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err, "server", "get server")
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

// UpdateServer handles PUT /api/v1/servers/{id}.
func (h *Handler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.Get(id); err != nil {
		writeStoreError(w, r, err, "server", "get server")
		return
	}

	var req models.Server
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	srv, err := h.Store.Update(id, req)
	if err != nil {
		writeStoreError(w, r, err, "server", "update server")
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

// DeleteServer handles DELETE /api/v1/servers/{id}.
func (h *Handler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err, "server", "delete server")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkRequest struct {
	IDs   []string        `json:"ids"`
	Patch inventory.Patch `json:"patch"`
}

func decodeBulk(w http.ResponseWriter, r *http.Request) (bulkRequest, bool) {
	var req bulkRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return req, false
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return req, false
	}
	return req, true
}

// BulkUpdate handles POST /api/v1/servers/bulk/update.
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	n, err := h.Store.BulkUpdate(req.IDs, req.Patch)
	if err != nil {
		writeStoreError(w, r, err, "server", "update servers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// BulkMarkPatched handles POST /api/v1/servers/bulk/patch. The selected
// servers get today's date as their last patch date.
func (h *Handler) BulkMarkPatched(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	n, err := h.Store.BulkMarkPatched(req.IDs)
	if err != nil {
		writeStoreError(w, r, err, "server", "mark servers patched")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// BulkDelete handles POST /api/v1/servers/bulk/delete.
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBulk(w, r)
	if !ok {
		return
	}
	n, err := h.Store.BulkDelete(req.IDs)
	if err != nil {
		writeStoreError(w, r, err, "server", "delete servers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Stats())
}
