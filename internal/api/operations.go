package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/toir/internal/model"
	"github.com/erazemk/toir/internal/store"
)

// OperationsHandler handles the operations of work orders. Access follows the
// parent order.
type OperationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/work-order-operations/{workOrderId}.
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "workOrderId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid work order id")
		return
	}
	if _, err := visibleOrder(r.Context(), h.DB, GetClaims(r.Context()), id); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	ops, err := store.ListOperations(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "listing operations")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(ops))
}

// Create handles POST /api/work-order-operations.
func (h *OperationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.OperationInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if _, err := visibleOrder(r.Context(), h.DB, claims, in.WorkOrderID); err != nil {
		storeError(w, err, "getting work order")
		return
	}
	if !model.RoleAtLeast(claims.Role, model.RoleManager) && in.AssignedTo != nil && *in.AssignedTo != claims.UserID {
		jsonError(w, http.StatusForbidden, "technicians can only assign operations to themselves")
		return
	}

	op, err := store.CreateOperation(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "creating operation")
		return
	}

	slog.Info("operation added", "user", claims.Username, "work_order", op.WorkOrderID,
		"operation", op.OperationNumber)
	jsonResponse(w, http.StatusCreated, op)
}

// Update handles PUT /api/work-order-operations/{id}.
func (h *OperationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid operation id")
		return
	}

	var patch model.OperationPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	op, err := store.GetOperation(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "getting operation")
		return
	}
	if op == nil {
		jsonError(w, http.StatusNotFound, "operation not found")
		return
	}
	claims := GetClaims(r.Context())
	if _, err := visibleOrder(r.Context(), h.DB, claims, op.WorkOrderID); err != nil {
		storeError(w, err, "getting work order")
		return
	}

	op, err = store.UpdateOperation(r.Context(), h.DB, id, patch)
	if err != nil {
		storeError(w, err, "updating operation")
		return
	}

	slog.Info("operation updated", "user", claims.Username, "operation", op.ID, "status", op.Status)
	jsonResponse(w, http.StatusOK, op)
}

// ListWorkTypes handles GET /api/work-types.
func (h *OperationsHandler) ListWorkTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListWorkTypes(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "listing work types")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(types))
}
