package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

const operationColumns = `o.id, o.work_order_id, o.operation_number, o.description, o.estimated_hours,
	o.actual_hours, o.status, o.start_time, o.end_time, o.assigned_to, o.notes, o.created_at, o.updated_at,
	u.full_name`

func scanOperation(s rowScanner) (*model.WorkOrderOperation, error) {
	op := &model.WorkOrderOperation{}
	var notes, fullName sql.NullString
	err := s.Scan(&op.ID, &op.WorkOrderID, &op.OperationNumber, &op.Description, &op.EstimatedHours,
		&op.ActualHours, &op.Status, &op.StartTime, &op.EndTime, &op.AssignedTo, &notes, &op.CreatedAt,
		&op.UpdatedAt, &fullName)
	if err != nil {
		return nil, err
	}
	op.Notes = notes.String
	op.AssignedToName = fullName.String
	return op, nil
}

func getOperation(ctx context.Context, q querier, id int64) (*model.WorkOrderOperation, error) {
	op, err := scanOperation(q.QueryRowContext(ctx,
		`SELECT `+operationColumns+`
		 FROM work_order_operations o
		 LEFT JOIN users u ON u.id = o.assigned_to
		 WHERE o.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting operation: %w", err)
	}
	return op, nil
}

// GetOperation returns a work order operation by ID.
func GetOperation(ctx context.Context, db *sql.DB, id int64) (*model.WorkOrderOperation, error) {
	return getOperation(ctx, db, id)
}

// ListOperations returns the operations of a work order by operation number.
func ListOperations(ctx context.Context, db *sql.DB, workOrderID int64) ([]model.WorkOrderOperation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+operationColumns+`
		 FROM work_order_operations o
		 LEFT JOIN users u ON u.id = o.assigned_to
		 WHERE o.work_order_id = ?
		 ORDER BY o.operation_number`, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []model.WorkOrderOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, *op)
	}
	return ops, rows.Err()
}

// CreateOperation adds a pending operation to a work order. Operation numbers
// are unique within the order.
func CreateOperation(ctx context.Context, db *sql.DB, in model.OperationInput) (*model.WorkOrderOperation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := workOrderExists(ctx, tx, in.WorkOrderID); err != nil {
			return err
		}
		if err := checkAssignee(ctx, tx, in.AssignedTo); err != nil {
			return err
		}

		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM work_order_operations WHERE work_order_id = ? AND operation_number = ?`,
			in.WorkOrderID, in.OperationNumber,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("checking operation number: %w", err)
		}
		if taken > 0 {
			return model.Conflictf("operation %d already exists on this work order", in.OperationNumber)
		}

		now := nowUTC()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO work_order_operations
			     (work_order_id, operation_number, description, estimated_hours, status, assigned_to, notes,
			      created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.WorkOrderID, in.OperationNumber, in.Description, in.EstimatedHours, model.OperationPending,
			in.AssignedTo, nullString(in.Notes), now, now,
		)
		if err != nil {
			return fmt.Errorf("creating operation: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting operation id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOperation(ctx, db, id)
}

// UpdateOperation records progress on an operation.
func UpdateOperation(ctx context.Context, db *sql.DB, id int64, patch model.OperationPatch) (*model.WorkOrderOperation, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		op, err := getOperation(ctx, tx, id)
		if err != nil {
			return err
		}
		if op == nil {
			return model.NotFoundf("operation not found")
		}
		if err := patch.Apply(op); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE work_order_operations
			 SET status = ?, actual_hours = ?, start_time = ?, end_time = ?, updated_at = ?
			 WHERE id = ?`,
			op.Status, op.ActualHours, op.StartTime, op.EndTime, nowUTC(), id,
		)
		if err != nil {
			return fmt.Errorf("updating operation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOperation(ctx, db, id)
}

// ListWorkTypes returns the active work types ordered by code.
func ListWorkTypes(ctx context.Context, db *sql.DB) ([]model.WorkType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, code, name, description, is_active FROM work_types WHERE is_active = 1 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing work types: %w", err)
	}
	defer rows.Close()

	var types []model.WorkType
	for rows.Next() {
		var t model.WorkType
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &description, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scanning work type: %w", err)
		}
		t.Description = description.String
		types = append(types, t)
	}
	return types, rows.Err()
}
