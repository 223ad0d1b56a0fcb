package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

const workOrderColumns = `id, equipment, equipment_node_id, location, work_type, priority, status,
	description, plan_id, created_by, assigned_to, created_at, updated_at`

func scanWorkOrder(s rowScanner) (*model.WorkOrder, error) {
	wo := &model.WorkOrder{}
	var nodeID, location, description sql.NullString
	err := s.Scan(&wo.ID, &wo.Equipment, &nodeID, &location, &wo.WorkType, &wo.Priority, &wo.Status,
		&description, &wo.PlanID, &wo.CreatedBy, &wo.AssignedTo, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if nodeID.Valid {
		wo.EquipmentNodeID = &nodeID.String
	}
	wo.Location = location.String
	wo.Description = description.String
	return wo, nil
}

func getWorkOrder(ctx context.Context, q querier, id int64) (*model.WorkOrder, error) {
	wo, err := scanWorkOrder(q.QueryRowContext(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting work order: %w", err)
	}
	return wo, nil
}

// GetWorkOrder returns a work order by ID.
func GetWorkOrder(ctx context.Context, db *sql.DB, id int64) (*model.WorkOrder, error) {
	return getWorkOrder(ctx, db, id)
}

// WorkOrderFilter narrows ListWorkOrders and WorkOrderStats. Zero values
// match everything.
type WorkOrderFilter struct {
	AssignedTo *int64
	Status     string
}

func (f WorkOrderFilter) where() (string, []any) {
	query := ` WHERE 1=1`
	var args []any
	if f.AssignedTo != nil {
		query += ` AND assigned_to = ?`
		args = append(args, *f.AssignedTo)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	return query, args
}

// ListWorkOrders returns work orders, newest first.
func ListWorkOrders(ctx context.Context, db *sql.DB, f WorkOrderFilter) ([]model.WorkOrder, error) {
	where, args := f.where()
	rows, err := db.QueryContext(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing work orders: %w", err)
	}
	defer rows.Close()

	var orders []model.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work order: %w", err)
		}
		orders = append(orders, *wo)
	}
	return orders, rows.Err()
}

func checkAssignee(ctx context.Context, q querier, id *int64) error {
	if id == nil {
		return nil
	}
	var exists int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE id = ? AND deleted_at IS NULL`, *id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.Invalidf("user %d does not exist", *id)
	}
	if err != nil {
		return fmt.Errorf("checking assignee: %w", err)
	}
	return nil
}

// CreateWorkOrder validates and stores a new open work order.
func CreateWorkOrder(ctx context.Context, db *sql.DB, in model.WorkOrderInput, createdBy *int64) (*model.WorkOrder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.EquipmentNodeID != nil {
		node, err := GetNode(ctx, db, *in.EquipmentNodeID)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, model.Invalidf("equipment node %q does not exist", *in.EquipmentNodeID)
		}
	} else {
		id, err := assetIDByName(ctx, db, in.Equipment)
		if err != nil {
			return nil, err
		}
		in.EquipmentNodeID = id
	}
	if err := checkAssignee(ctx, db, in.AssignedTo); err != nil {
		return nil, err
	}

	now := nowUTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO work_orders
		     (equipment, equipment_node_id, location, work_type, priority, status, description,
		      created_by, assigned_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Equipment, in.EquipmentNodeID, nullString(in.Location), in.WorkType, in.Priority, in.Status,
		nullString(in.Description), createdBy, in.AssignedTo, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating work order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting work order id: %w", err)
	}

	return GetWorkOrder(ctx, db, id)
}

// assetIDByName returns the id of the only asset called name, or nil when no
// asset or more than one carries that name.
func assetIDByName(ctx context.Context, q querier, name string) (*string, error) {
	assets, err := queryNodes(ctx, q, "WHERE node_type = ? AND name = ?", model.NodeKindAsset, name)
	if err != nil {
		return nil, err
	}
	if len(assets) != 1 {
		return nil, nil
	}
	return &assets[0].ID, nil
}

// UpdateWorkOrder applies a partial update. Status may only move forward.
func UpdateWorkOrder(ctx context.Context, db *sql.DB, id int64, patch model.WorkOrderPatch) (*model.WorkOrder, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		wo, err := getWorkOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if wo == nil {
			return model.NotFoundf("work order not found")
		}
		if err := checkAssignee(ctx, tx, patch.AssignedTo); err != nil {
			return err
		}
		if err := patch.Apply(wo); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE work_orders
			 SET equipment = ?, location = ?, work_type = ?, priority = ?, status = ?, description = ?,
			     assigned_to = ?, updated_at = ?
			 WHERE id = ?`,
			wo.Equipment, nullString(wo.Location), wo.WorkType, wo.Priority, wo.Status,
			nullString(wo.Description), wo.AssignedTo, nowUTC(), id,
		)
		if err != nil {
			return fmt.Errorf("updating work order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetWorkOrder(ctx, db, id)
}

// DeleteWorkOrder removes a work order together with its operations and usage
// records.
func DeleteWorkOrder(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM work_orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work order: %w", err)
	}
	return expectOne(res, "work order not found")
}

// GetWorkOrderStats counts work orders by status.
func GetWorkOrderStats(ctx context.Context, db *sql.DB, f WorkOrderFilter) (*model.WorkOrderStats, error) {
	where, args := f.where()
	args = append([]any{model.StatusOpen, model.StatusInProgress, model.StatusDone, model.WorkTypeEmergency}, args...)

	s := &model.WorkOrderStats{}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = ?), 0),
		        COALESCE(SUM(status = ?), 0),
		        COALESCE(SUM(status = ?), 0),
		        COALESCE(SUM(work_type = ?), 0)
		 FROM work_orders`+where, args...,
	).Scan(&s.Total, &s.Open, &s.InProgress, &s.Done, &s.Emergencies)
	if err != nil {
		return nil, fmt.Errorf("getting work order stats: %w", err)
	}
	return s, nil
}
