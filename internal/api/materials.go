package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// MaterialsHandler handles materials and their usage.
type MaterialsHandler struct {
	DB *sql.DB
}

// List handles GET /api/materials.
func (h *MaterialsHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := store.ListMaterials(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing materials")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(materials))
}

// Get handles GET /api/materials/{id}.
func (h *MaterialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid material id")
		return
	}

	m, err := store.GetMaterial(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "getting material")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "material not found")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Create handles POST /api/materials.
func (h *MaterialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.MaterialInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := store.CreateMaterial(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "creating material")
		return
	}

	slog.Info("material created", "user", GetClaims(r.Context()).Username, "material", m.ID, "code", m.Code)
	jsonResponse(w, http.StatusCreated, m)
}

// Update handles PUT /api/materials/{id}.
func (h *MaterialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid material id")
		return
	}

	var in model.MaterialInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := store.UpdateMaterial(r.Context(), h.DB, id, in)
	if err != nil {
		storeError(w, err, "updating material")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Delete handles DELETE /api/materials/{id}.
func (h *MaterialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid material id")
		return
	}

	if err := store.DeleteMaterial(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting material")
		return
	}

	slog.Info("material deactivated", "user", GetClaims(r.Context()).Username, "material", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "material deleted"})
}

// ListUsage handles GET /api/material-usage/{workOrderId}.
func (h *MaterialsHandler) ListUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workOrderId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	if _, err := visibleOrder(r.Context(), h.DB, GetClaims(r.Context()), id); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	usage, err := store.ListMaterialUsage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "listing material usage")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(usage))
}

// RecordUsage handles POST /api/material-usage.
func (h *MaterialsHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var in model.MaterialUsageInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if _, err := visibleOrder(r.Context(), h.DB, claims, in.WorkOrderID); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	usage, err := store.RecordMaterialUsage(r.Context(), h.DB, in, &claims.UserID)
	if err != nil {
		storeError(w, err, "recording material usage")
		return
	}

	slog.Info("materials issued", "user", claims.Username, "work_order", in.WorkOrderID,
		"material", in.MaterialID, "quantity", in.QuantityUsed.String())
	jsonResponse(w, http.StatusCreated, usage)
}
