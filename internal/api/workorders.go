package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/toir/internal/auth"
	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/report"
	"github.com/erazemk/toir/internal/store"
)

// WorkOrdersHandler handles work orders. Technicians only see and change
// orders assigned to them.
type WorkOrdersHandler struct {
	DB *sql.DB
}

// visibleOrder loads a work order the caller may access.
func visibleOrder(ctx context.Context, db *sql.DB, claims *auth.Claims, id int64) (*model.WorkOrder, error) {
	wo, err := store.GetWorkOrder(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, model.NotFoundf("work order not found")
	}
	if !wo.VisibleTo(claims.UserID, claims.Role) {
		return nil, model.Forbiddenf("work order is not assigned to you")
	}
	return wo, nil
}

// ownFilter restricts technicians to their own orders.
func ownFilter(claims *auth.Claims) store.WorkOrderFilter {
	var f store.WorkOrderFilter
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		f.AssignedTo = &claims.UserID
	}
	return f
}

// List handles GET /api/work-orders[?status=].
func (h *WorkOrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	f := ownFilter(GetClaims(r.Context()))
	f.Status = r.URL.Query().Get("status")
	if f.Status != "" && !model.ValidStatus(f.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	orders, err := store.ListWorkOrders(r.Context(), h.DB, f)
	if err != nil {
		storeError(w, err, "listing work orders")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(orders))
}

// Get handles GET /api/work-orders/{id}.
func (h *WorkOrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}

	wo, err := visibleOrder(r.Context(), h.DB, GetClaims(r.Context()), id)
	if err != nil {
		storeError(w, err, "getting work order")
		return
	}
	jsonResponse(w, http.StatusOK, wo)
}

// Stats handles GET /api/work-orders/stats/summary.
func (h *WorkOrdersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetWorkOrderStats(r.Context(), h.DB, ownFilter(GetClaims(r.Context())))
	if err != nil {
		storeError(w, err, "getting work order stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Export handles GET /api/work-orders/export.
func (h *WorkOrdersHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	orders, err := store.ListWorkOrders(r.Context(), h.DB, ownFilter(claims))
	if err != nil {
		storeError(w, err, "listing work orders")
		return
	}

	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing users")
		return
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
		if u.FullName != "" {
			names[u.ID] = u.FullName
		}
	}

	filename := fmt.Sprintf("work-orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WorkOrders(w, orders, names); err != nil {
		// The response has already started.
		slog.Error("writing work order export", "error", err)
		return
	}
	slog.Info("work orders exported", "user", claims.Username, "count", len(orders))
}

// Create handles POST /api/work-orders. Technicians' orders are assigned to
// themselves.
func (h *WorkOrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.WorkOrderInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleManager) {
		if in.AssignedTo == nil {
			in.AssignedTo = &claims.UserID
		}
		if *in.AssignedTo != claims.UserID {
			jsonError(w, http.StatusForbidden, "technicians can only assign work orders to themselves")
			return
		}
	}

	wo, err := store.CreateWorkOrder(r.Context(), h.DB, in, &claims.UserID)
	if err != nil {
		storeError(w, err, "creating work order")
		return
	}

	slog.Info("work order created", "user", claims.Username, "work_order", wo.ID,
		"type", wo.WorkType, "priority", wo.Priority)
	jsonResponse(w, http.StatusCreated, wo)
}

// Update handles PUT /api/work-orders/{id}.
func (h *WorkOrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}

	var patch model.WorkOrderPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if _, err := visibleOrder(r.Context(), h.DB, claims, id); err != nil {
		storeError(w, err, "getting work order")
		return
	}
	if !model.RoleAtLeast(claims.Role, model.RoleManager) && patch.AssignedTo != nil && *patch.AssignedTo != claims.UserID {
		jsonError(w, http.StatusForbidden, "technicians can only assign work orders to themselves")
		return
	}

	wo, err := store.UpdateWorkOrder(r.Context(), h.DB, id, patch)
	if err != nil {
		storeError(w, err, "updating work order")
		return
	}

	slog.Info("work order updated", "user", claims.Username, "work_order", id, "status", wo.Status)
	jsonResponse(w, http.StatusOK, wo)
}

// Delete handles DELETE /api/work-orders/{id}.
func (h *WorkOrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}

	if err := store.DeleteWorkOrder(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "deleting work order")
		return
	}

	slog.Info("work order deleted", "user", GetClaims(r.Context()).Username, "work_order", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "work order deleted"})
}
