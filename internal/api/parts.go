package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// PartsHandler handles spare parts, their stock and their usage.
type PartsHandler struct {
	DB *sql.DB
}

type setStockRequest struct {
	QuantityOnHand *int `json:"quantity_on_hand"`
}

// List handles GET /api/spare-parts.
func (h *PartsHandler) List(w http.ResponseWriter, r *http.Request) {
	parts, err := store.ListSpareParts(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing spare parts")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(parts))
}

// Get handles GET /api/spare-parts/{id}.
func (h *PartsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid spare part id")
		return
	}

	part, err := store.GetSparePart(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "getting spare part")
		return
	}
	if part == nil {
		jsonError(w, http.StatusNotFound, "spare part not found")
		return
	}
	jsonResponse(w, http.StatusOK, part)
}

// Create handles POST /api/spare-parts.
func (h *PartsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.SparePartInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	part, err := store.CreateSparePart(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "creating spare part")
		return
	}

	slog.Info("spare part created", "user", GetClaims(r.Context()).Username, "part", part.ID, "code", part.Code)
	jsonResponse(w, http.StatusCreated, part)
}

// Update handles PUT /api/spare-parts/{id}.
func (h *PartsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid spare part id")
		return
	}

	var in model.SparePartInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	part, err := store.UpdateSparePart(r.Context(), h.DB, id, in)
	if err != nil {
		storeError(w, err, "updating spare part")
		return
	}

	slog.Info("spare part updated", "user", GetClaims(r.Context()).Username, "part", id)
	jsonResponse(w, http.StatusOK, part)
}

// Delete handles DELETE /api/spare-parts/{id}.
func (h *PartsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid spare part id")
		return
	}

	if err := store.DeleteSparePart(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting spare part")
		return
	}

	slog.Info("spare part deactivated", "user", GetClaims(r.Context()).Username, "part", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "spare part deleted"})
}

// ListStock handles GET /api/spare-parts-stock.
func (h *PartsHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	stock, err := store.ListStock(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing stock")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(stock))
}

// SetStock handles PUT /api/spare-parts-stock/{id}, where id is the spare
// part.
func (h *PartsHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid spare part id")
		return
	}

	var req setStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuantityOnHand == nil {
		jsonError(w, http.StatusBadRequest, "quantity_on_hand required")
		return
	}

	stock, err := store.SetStock(r.Context(), h.DB, id, *req.QuantityOnHand)
	if err != nil {
		storeError(w, err, "setting stock")
		return
	}

	slog.Info("stock set", "user", GetClaims(r.Context()).Username, "part", id, "on_hand", stock.QuantityOnHand)
	jsonResponse(w, http.StatusOK, stock)
}

// ListUsage handles GET /api/spare-part-usage/{workOrderId}.
func (h *PartsHandler) ListUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workOrderId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	if _, err := visibleOrder(r.Context(), h.DB, GetClaims(r.Context()), id); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	usage, err := store.ListSparePartUsage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "listing spare part usage")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(usage))
}

// RecordUsage handles POST /api/spare-part-usage.
func (h *PartsHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var in model.SparePartUsageInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if _, err := visibleOrder(r.Context(), h.DB, claims, in.WorkOrderID); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	usage, err := store.RecordSparePartUsage(r.Context(), h.DB, in, &claims.UserID)
	if err != nil {
		storeError(w, err, "recording spare part usage")
		return
	}

	slog.Info("spare parts issued", "user", claims.Username, "work_order", in.WorkOrderID,
		"part", in.SparePartID, "quantity", in.QuantityUsed)
	jsonResponse(w, http.StatusCreated, usage)
}
