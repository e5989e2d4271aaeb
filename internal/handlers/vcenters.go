package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tphummel/server_inventory/internal/models"
)

// ListVCenters handles GET /api/v1/vcenters.
func (h *Handler) ListVCenters(w http.ResponseWriter, r *http.Request) {
	vcs := h.Store.VCenters()
	if vcs == nil {
		vcs = []models.VCenter{}
	}
	writeJSON(w, http.StatusOK, vcs)
}

// CreateVCenter handles POST /api/v1/vcenters.
func (h *Handler) CreateVCenter(w http.ResponseWriter, r *http.Request) {
	var req models.VCenter
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	vc, err := h.Store.AddVCenter(req)
	if err != nil {
		writeStoreError(w, r, err, "vCenter", "create vCenter")
		return
	}
	writeJSON(w, http.StatusCreated, vc)
}

// UpdateVCenter handles PUT /api/v1/vcenters/{id}. Renaming a vCenter moves
// its servers to the new name.
func (h *Handler) UpdateVCenter(w http.ResponseWriter, r *http.Request) {
	var req models.VCenter
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	vc, err := h.Store.UpdateVCenter(chi.URLParam(r, "id"), req)
	if err != nil {
		writeStoreError(w, r, err, "vCenter", "update vCenter")
		return
	}
	writeJSON(w, http.StatusOK, vc)
}

// DeleteVCenter handles DELETE /api/v1/vcenters/{id}.
func (h *Handler) DeleteVCenter(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteVCenter(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err, "vCenter", "delete vCenter")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
