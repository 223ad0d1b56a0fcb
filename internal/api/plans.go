package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/scheduler"
	"github.com/erazemk/toir/internal/store"
)

// PlansHandler handles maintenance plans and on-demand order generation.
type PlansHandler struct {
	DB        *sql.DB
	Scheduler *scheduler.Scheduler
	Now       func() time.Time
}

// List handles GET /api/maintenance-plans. ?all=1 includes inactive plans.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all")
	plans, err := store.ListPlans(r.Context(), h.DB, all == "1" || all == "true")
	if err != nil {
		storeError(w, err, "listing maintenance plans")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(plans))
}

// Get handles GET /api/maintenance-plans/{id}.
func (h *PlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	plan, err := store.GetPlan(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "getting maintenance plan")
		return
	}
	if plan == nil {
		jsonError(w, http.StatusNotFound, "maintenance plan not found")
		return
	}
	jsonResponse(w, http.StatusOK, plan)
}

// ListForEquipment handles GET /api/maintenance-plans/equipment/{id}.
func (h *PlansHandler) ListForEquipment(w http.ResponseWriter, r *http.Request) {
	plans, err := store.ListPlansForEquipment(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "listing equipment plans")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(plans))
}

// Create handles POST /api/maintenance-plans.
func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.PlanInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	plan, err := store.CreatePlan(r.Context(), h.DB, in, &claims.UserID, h.Now())
	if err != nil {
		storeError(w, err, "creating maintenance plan")
		return
	}

	slog.Info("maintenance plan created", "user", claims.Username, "plan", plan.ID,
		"equipment", plan.EquipmentNodeID, "next_due", plan.NextDueDate)
	jsonResponse(w, http.StatusCreated, plan)
}

// Update handles PUT /api/maintenance-plans/{id}.
func (h *PlansHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	var patch model.PlanPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := store.UpdatePlan(r.Context(), h.DB, id, patch)
	if err != nil {
		storeError(w, err, "updating maintenance plan")
		return
	}

	slog.Info("maintenance plan updated", "user", GetClaims(r.Context()).Username, "plan", id)
	jsonResponse(w, http.StatusOK, plan)
}

// Delete handles DELETE /api/maintenance-plans/{id}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	if err := store.DeletePlan(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting maintenance plan")
		return
	}

	slog.Info("maintenance plan deleted", "user", GetClaims(r.Context()).Username, "plan", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "maintenance plan deleted"})
}

// AutoCreateOrders handles POST /api/maintenance-plans/auto-create-orders.
func (h *PlansHandler) AutoCreateOrders(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	n, err := h.Scheduler.RunOnce(r.Context(), &claims.UserID)
	if err != nil {
		storeError(w, err, "creating due work orders")
		return
	}

	slog.Info("due work orders generated", "user", claims.Username, "count", n)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%d work orders created", n),
		"count":   n,
	})
}
