package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// MaintenanceHandler handles maintenance types and the maintenance log.
type MaintenanceHandler struct {
	DB  *sql.DB
	Now func() time.Time
}

// ListTypes handles GET /api/maintenance-types.
func (h *MaintenanceHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListMaintenanceTypes(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing maintenance types")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(types))
}

// GetType handles GET /api/maintenance-types/{id}.
func (h *MaintenanceHandler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid maintenance type id")
		return
	}

	mt, err := store.GetMaintenanceType(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "getting maintenance type")
		return
	}
	if mt == nil {
		jsonError(w, http.StatusNotFound, "maintenance type not found")
		return
	}
	jsonResponse(w, http.StatusOK, mt)
}

// CreateType handles POST /api/maintenance-types.
func (h *MaintenanceHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var in model.MaintenanceTypeInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mt, err := store.CreateMaintenanceType(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "creating maintenance type")
		return
	}

	slog.Info("maintenance type created", "user", GetClaims(r.Context()).Username, "type", mt.ID, "code", mt.Code)
	jsonResponse(w, http.StatusCreated, mt)
}

// UpdateType handles PUT /api/maintenance-types/{id}.
func (h *MaintenanceHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid maintenance type id")
		return
	}

	var in model.MaintenanceTypeInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mt, err := store.UpdateMaintenanceType(r.Context(), h.DB, id, in)
	if err != nil {
		storeError(w, err, "updating maintenance type")
		return
	}
	jsonResponse(w, http.StatusOK, mt)
}

// DeleteType handles DELETE /api/maintenance-types/{id}.
func (h *MaintenanceHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid maintenance type id")
		return
	}

	if err := store.DeleteMaintenanceType(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting maintenance type")
		return
	}

	slog.Info("maintenance type deleted", "user", GetClaims(r.Context()).Username, "type", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "maintenance type deleted"})
}

// History handles GET /api/maintenance-history, optionally filtered by
// ?equipment_id=.
func (h *MaintenanceHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := store.ListMaintenanceHistory(r.Context(), h.DB, r.URL.Query().Get("equipment_id"))
	if err != nil {
		storeError(w, err, "listing maintenance history")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(records))
}

// Log handles POST /api/maintenance-history.
func (h *MaintenanceHandler) Log(w http.ResponseWriter, r *http.Request) {
	var in model.MaintenanceRecordInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if in.WorkOrderID != nil {
		if _, err := visibleOrder(r.Context(), h.DB, claims, *in.WorkOrderID); err != nil {
			storeError(w, err, "getting work order")
			return
		}
	}

	rec, err := store.LogMaintenance(r.Context(), h.DB, in, &claims.UserID, h.Now().UTC())
	if err != nil {
		storeError(w, err, "logging maintenance")
		return
	}

	slog.Info("maintenance logged", "user", claims.Username, "record", rec.ID,
		"equipment", rec.EquipmentNodeID, "status", rec.Status)
	jsonResponse(w, http.StatusCreated, rec)
}
