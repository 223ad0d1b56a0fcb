package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/toir/internal/imaging"
	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// EquipmentHandler handles the equipment hierarchy.
type EquipmentHandler struct {
	DB *sql.DB
}

// ListAssets handles GET /api/equipment.
func (h *EquipmentHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := store.ListAssets(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing equipment")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(assets))
}

// Tree handles GET /api/equipment/tree. An empty hierarchy is null.
func (h *EquipmentHandler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := store.GetTree(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "building equipment tree")
		return
	}
	jsonResponse(w, http.StatusOK, tree)
}

// ListNodes handles GET /api/equipment/nodes.
func (h *EquipmentHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := store.ListNodes(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing equipment nodes")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(nodes))
}

// GetNode handles GET /api/equipment/nodes/{id}.
func (h *EquipmentHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := store.GetNode(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "getting equipment node")
		return
	}
	if node == nil {
		jsonError(w, http.StatusNotFound, "equipment node not found")
		return
	}
	jsonResponse(w, http.StatusOK, node)
}

// CreateNode handles POST /api/equipment/nodes.
func (h *EquipmentHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var in model.NodeInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := store.CreateNode(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "creating equipment node")
		return
	}

	slog.Info("equipment node created", "user", GetClaims(r.Context()).Username, "node", node.ID, "name", node.Name)
	jsonResponse(w, http.StatusCreated, node)
}

// UpdateNode handles PATCH /api/equipment/nodes/{id}.
func (h *EquipmentHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch model.NodePatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := store.UpdateNode(r.Context(), h.DB, r.PathValue("id"), patch)
	if err != nil {
		storeError(w, err, "updating equipment node")
		return
	}

	slog.Info("equipment node updated", "user", GetClaims(r.Context()).Username, "node", node.ID)
	jsonResponse(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /api/equipment/nodes/{id}. The subtree goes
// with it.
func (h *EquipmentHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteNode(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting equipment node")
		return
	}

	slog.Info("equipment node deleted", "user", GetClaims(r.Context()).Username, "node", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment node deleted"})
}

// Reset handles POST /api/equipment/reset.
func (h *EquipmentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	tree, err := store.ResetEquipment(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "resetting equipment")
		return
	}

	slog.Warn("equipment hierarchy reset to template", "user", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, tree)
}

// UploadImage handles PUT /api/equipment/nodes/{id}/image.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	defer r.Body.Close()

	photo, err := imaging.NormalizePhoto(r.Body)
	if err != nil {
		storeError(w, err, "processing equipment photo")
		return
	}

	if err := store.SetNodeImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "storing equipment photo")
		return
	}

	slog.Info("equipment photo uploaded", "user", GetClaims(r.Context()).Username, "node", id,
		"width", photo.Width, "height", photo.Height, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/equipment/nodes/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetNodeImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "getting equipment photo")
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}
