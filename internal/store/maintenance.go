package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/toir/internal/model"
)

const maintenanceTypeColumns = `id, code, name, frequency_type, frequency_value, description, is_active, created_at`

func scanMaintenanceType(s rowScanner) (*model.MaintenanceType, error) {
	mt := &model.MaintenanceType{}
	var description sql.NullString
	err := s.Scan(&mt.ID, &mt.Code, &mt.Name, &mt.FrequencyType, &mt.FrequencyValue, &description,
		&mt.IsActive, &mt.CreatedAt)
	if err != nil {
		return nil, err
	}
	mt.Description = description.String
	return mt, nil
}

// CreateMaintenanceType creates a maintenance type.
func CreateMaintenanceType(ctx context.Context, db *sql.DB, in model.MaintenanceTypeInput) (*model.MaintenanceType, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	active := in.IsActive == nil || *in.IsActive

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_types (code, name, frequency_type, frequency_value, description, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Code, in.Name, in.FrequencyType, in.FrequencyValue, nullString(in.Description), active, nowUTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance type id: %w", err)
	}

	return GetMaintenanceType(ctx, db, id)
}

// GetMaintenanceType returns a maintenance type by ID.
func GetMaintenanceType(ctx context.Context, db *sql.DB, id int64) (*model.MaintenanceType, error) {
	mt, err := scanMaintenanceType(db.QueryRowContext(ctx,
		`SELECT `+maintenanceTypeColumns+` FROM maintenance_types WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance type: %w", err)
	}
	return mt, nil
}

// ListMaintenanceTypes returns every maintenance type ordered by code.
func ListMaintenanceTypes(ctx context.Context, db *sql.DB) ([]model.MaintenanceType, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+maintenanceTypeColumns+` FROM maintenance_types ORDER BY code, id`)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance types: %w", err)
	}
	defer rows.Close()

	var types []model.MaintenanceType
	for rows.Next() {
		mt, err := scanMaintenanceType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance type: %w", err)
		}
		types = append(types, *mt)
	}
	return types, rows.Err()
}

// UpdateMaintenanceType replaces a maintenance type's attributes.
func UpdateMaintenanceType(ctx context.Context, db *sql.DB, id int64, in model.MaintenanceTypeInput) (*model.MaintenanceType, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	active := in.IsActive == nil || *in.IsActive

	res, err := db.ExecContext(ctx,
		`UPDATE maintenance_types
		 SET code = ?, name = ?, frequency_type = ?, frequency_value = ?, description = ?, is_active = ?
		 WHERE id = ?`,
		in.Code, in.Name, in.FrequencyType, in.FrequencyValue, nullString(in.Description), active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating maintenance type: %w", err)
	}
	if err := expectOne(res, "maintenance type not found"); err != nil {
		return nil, err
	}

	return GetMaintenanceType(ctx, db, id)
}

// DeleteMaintenanceType removes a maintenance type. Plans and records that
// referenced it keep existing without a type.
func DeleteMaintenanceType(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM maintenance_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting maintenance type: %w", err)
	}
	return expectOne(res, "maintenance type not found")
}

// LogMaintenance records a maintenance event. When the event completes a
// plan, the plan's last maintenance date and next due date advance in the
// same transaction.
func LogMaintenance(ctx context.Context, db *sql.DB, in model.MaintenanceRecordInput, performedBy *int64, now time.Time) (*model.MaintenanceRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	performedAt := now.UTC()
	if in.PerformedAt != nil {
		performedAt = in.PerformedAt.Time.UTC()
	}

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		node, err := getNode(ctx, tx, in.EquipmentNodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return model.Invalidf("equipment node %q does not exist", in.EquipmentNodeID)
		}
		if err := checkMaintenanceType(ctx, tx, in.MaintenanceTypeID); err != nil {
			return err
		}
		if in.WorkOrderID != nil {
			if err := workOrderExists(ctx, tx, *in.WorkOrderID); errors.Is(err, model.ErrNotFound) {
				return model.Invalidf("work order %d does not exist", *in.WorkOrderID)
			} else if err != nil {
				return err
			}
		}

		var plan *model.MaintenancePlan
		if in.PlanID != nil {
			plan, err = getPlan(ctx, tx, *in.PlanID)
			if err != nil {
				return err
			}
			if plan == nil {
				return model.Invalidf("maintenance plan %d does not exist", *in.PlanID)
			}
			if plan.EquipmentNodeID != node.ID {
				return model.Invalidf("maintenance plan %d belongs to other equipment", plan.ID)
			}
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO maintenance_history
			     (equipment_node_id, plan_id, maintenance_type_id, work_order_id, performed_at, performed_by,
			      status, notes, runtime_at_service)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			node.ID, in.PlanID, in.MaintenanceTypeID, in.WorkOrderID, performedAt, performedBy,
			in.Status, nullString(in.Notes), in.RuntimeAtService,
		)
		if err != nil {
			return fmt.Errorf("recording maintenance: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting maintenance record id: %w", err)
		}

		if plan == nil || in.Status != model.RecordCompleted {
			return nil
		}
		next, err := model.NextDue(performedAt, plan.FrequencyType, plan.FrequencyValue)
		if err != nil {
			return err
		}
		plan.LastMaintenanceDate = &performedAt
		plan.NextDueDate = next
		return savePlan(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}

	records, err := queryHistory(ctx, db, `WHERE h.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ListMaintenanceHistory returns maintenance records, newest first,
// optionally for one equipment node only.
func ListMaintenanceHistory(ctx context.Context, db *sql.DB, equipmentID string) ([]model.MaintenanceRecord, error) {
	if equipmentID != "" {
		return queryHistory(ctx, db, `WHERE h.equipment_node_id = ?`, equipmentID)
	}
	return queryHistory(ctx, db, "")
}

func queryHistory(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.MaintenanceRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT h.id, h.equipment_node_id, h.plan_id, h.maintenance_type_id, h.work_order_id,
		        h.performed_at, h.performed_by, h.status, h.notes, h.runtime_at_service,
		        e.name, u.full_name, u.username
		 FROM maintenance_history h
		 JOIN equipment_nodes e ON e.id = h.equipment_node_id
		 LEFT JOIN users u ON u.id = h.performed_by
		 `+where+`
		 ORDER BY h.performed_at DESC, h.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance history: %w", err)
	}
	defer rows.Close()

	var records []model.MaintenanceRecord
	for rows.Next() {
		var r model.MaintenanceRecord
		var notes, fullName, username sql.NullString
		if err := rows.Scan(&r.ID, &r.EquipmentNodeID, &r.PlanID, &r.MaintenanceTypeID, &r.WorkOrderID,
			&r.PerformedAt, &r.PerformedBy, &r.Status, &notes, &r.RuntimeAtService,
			&r.EquipmentName, &fullName, &username); err != nil {
			return nil, fmt.Errorf("scanning maintenance record: %w", err)
		}
		r.Notes = notes.String
		r.PerformedByName = fullName.String
		if r.PerformedByName == "" {
			r.PerformedByName = username.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
