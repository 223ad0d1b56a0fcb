package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// RuntimeHandler handles equipment meter readings.
type RuntimeHandler struct {
	DB *sql.DB
}

// List handles GET /api/equipment-runtime/{equipmentId}.
func (h *RuntimeHandler) List(w http.ResponseWriter, r *http.Request) {
	readings, err := store.ListRuntime(r.Context(), h.DB, r.PathValue("equipmentId"))
	if err != nil {
		storeError(w, err, "listing runtime")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(readings))
}

// Record handles POST /api/equipment-runtime.
func (h *RuntimeHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in model.EquipmentRuntimeInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	e, err := store.RecordRuntime(r.Context(), h.DB, in, &claims.UserID)
	if err != nil {
		storeError(w, err, "recording runtime")
		return
	}

	slog.Info("runtime recorded", "user", claims.Username, "equipment", e.EquipmentNodeID, "reading", e.ID)
	jsonResponse(w, http.StatusCreated, e)
}
