package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/toir/internal/model"
)

// DedupeWindow is how far back AutoCreateDueOrders looks for an unfinished
// Planned order on the same equipment.
const DedupeWindow = 24 * time.Hour

const planColumns = `id, equipment_node_id, equipment_name, maintenance_type_id, frequency_type,
	frequency_value, description, last_maintenance_date, next_due_date, is_active, created_by,
	created_at, updated_at`

func scanPlan(s rowScanner) (*model.MaintenancePlan, error) {
	p := &model.MaintenancePlan{}
	var description sql.NullString
	err := s.Scan(&p.ID, &p.EquipmentNodeID, &p.EquipmentName, &p.MaintenanceTypeID, &p.FrequencyType,
		&p.FrequencyValue, &description, &p.LastMaintenanceDate, &p.NextDueDate, &p.IsActive, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	return p, nil
}

func queryPlans(ctx context.Context, q querier, where string, args ...any) ([]model.MaintenancePlan, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+planColumns+` FROM maintenance_plans `+where+` ORDER BY next_due_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance plans: %w", err)
	}
	defer rows.Close()

	var plans []model.MaintenancePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func getPlan(ctx context.Context, q querier, id int64) (*model.MaintenancePlan, error) {
	p, err := scanPlan(q.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM maintenance_plans WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance plan: %w", err)
	}
	return p, nil
}

// GetPlan returns a maintenance plan by ID.
func GetPlan(ctx context.Context, db *sql.DB, id int64) (*model.MaintenancePlan, error) {
	return getPlan(ctx, db, id)
}

// ListPlans returns active plans ordered by due date, or all plans when
// includeInactive is set.
func ListPlans(ctx context.Context, db *sql.DB, includeInactive bool) ([]model.MaintenancePlan, error) {
	if includeInactive {
		return queryPlans(ctx, db, "")
	}
	return queryPlans(ctx, db, "WHERE is_active = 1")
}

// ListPlansForEquipment returns every plan of one equipment node.
func ListPlansForEquipment(ctx context.Context, db *sql.DB, nodeID string) ([]model.MaintenancePlan, error) {
	return queryPlans(ctx, db, "WHERE equipment_node_id = ?", nodeID)
}

func checkMaintenanceType(ctx context.Context, q querier, id *int64) error {
	if id == nil {
		return nil
	}
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM maintenance_types WHERE id = ?`, *id).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.Invalidf("maintenance type %d does not exist", *id)
	}
	if err != nil {
		return fmt.Errorf("checking maintenance type: %w", err)
	}
	return nil
}

// CreatePlan validates and stores a plan. The first due date is counted from
// now. Nothing is written when validation fails.
func CreatePlan(ctx context.Context, db *sql.DB, in model.PlanInput, createdBy *int64, now time.Time) (*model.MaintenancePlan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	next, err := model.NextDue(now, in.FrequencyType, *in.FrequencyValue)
	if err != nil {
		return nil, err
	}

	node, err := GetNode(ctx, db, in.EquipmentNodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, model.Invalidf("equipment node %q does not exist", in.EquipmentNodeID)
	}
	if err := checkMaintenanceType(ctx, db, in.MaintenanceTypeID); err != nil {
		return nil, err
	}

	name := in.EquipmentName
	if name == "" {
		name = node.Name
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_plans
		     (equipment_node_id, equipment_name, maintenance_type_id, frequency_type, frequency_value,
		      description, next_due_date, is_active, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		node.ID, name, in.MaintenanceTypeID, in.FrequencyType, *in.FrequencyValue,
		nullString(in.Description), next, createdBy, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance plan id: %w", err)
	}

	return GetPlan(ctx, db, id)
}

// UpdatePlan applies a partial update and recomputes the next due date when
// the frequency or the last maintenance date changed.
func UpdatePlan(ctx context.Context, db *sql.DB, id int64, patch model.PlanPatch) (*model.MaintenancePlan, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		p, err := getPlan(ctx, tx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return model.NotFoundf("maintenance plan not found")
		}
		if err := checkMaintenanceType(ctx, tx, patch.MaintenanceTypeID); err != nil {
			return err
		}
		if err := patch.Apply(p); err != nil {
			return err
		}
		return savePlan(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	return GetPlan(ctx, db, id)
}

func savePlan(ctx context.Context, q querier, p *model.MaintenancePlan) error {
	var last *time.Time
	if p.LastMaintenanceDate != nil {
		t := p.LastMaintenanceDate.UTC()
		last = &t
	}
	_, err := q.ExecContext(ctx,
		`UPDATE maintenance_plans
		 SET equipment_name = ?, maintenance_type_id = ?, frequency_type = ?, frequency_value = ?,
		     description = ?, last_maintenance_date = ?, next_due_date = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		p.EquipmentName, p.MaintenanceTypeID, p.FrequencyType, p.FrequencyValue,
		nullString(p.Description), last, p.NextDueDate.UTC(), p.IsActive, nowUTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating maintenance plan: %w", err)
	}
	return nil
}

// DeletePlan removes a plan. Orders generated from it keep existing.
func DeletePlan(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM maintenance_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting maintenance plan: %w", err)
	}
	return expectOne(res, "maintenance plan not found")
}

// AutoCreateDueOrders opens a Planned work order for every active plan due
// within horizon of now, unless its equipment already has an open or
// in-progress Planned order created within DedupeWindow. Two plans on the same
// equipment therefore yield one order. It returns the number of orders
// created.
//
// The scan runs in one write transaction. The unique index on
// (equipment_node_id, auto_bucket) rejects a second unfinished auto Planned
// order for the same equipment and UTC day, so a concurrent run in another process
// cannot double-insert either.
func AutoCreateDueOrders(ctx context.Context, db *sql.DB, now time.Time, horizon time.Duration, createdBy *int64) (int, error) {
	now = now.UTC()
	created := 0

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		due, err := queryPlans(ctx, tx, "WHERE is_active = 1 AND next_due_date <= ?", now.Add(horizon))
		if err != nil {
			return err
		}

		bucket := now.Format(time.DateOnly)
		since := now.Add(-DedupeWindow)
		for _, p := range due {
			var open int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM work_orders
				 WHERE equipment_node_id = ? AND work_type = ? AND status IN (?, ?) AND created_at >= ?`,
				p.EquipmentNodeID, model.WorkTypePlanned, model.StatusOpen, model.StatusInProgress, since,
			).Scan(&open)
			if err != nil {
				return fmt.Errorf("checking open orders: %w", err)
			}
			if open > 0 {
				continue
			}

			description := p.Description
			if description == "" {
				description = "scheduled service"
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO work_orders
				     (equipment, equipment_node_id, work_type, priority, status, description,
				      plan_id, auto_bucket, created_by, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT DO NOTHING`,
				p.EquipmentName, p.EquipmentNodeID, model.WorkTypePlanned, model.PriorityMedium,
				model.StatusOpen, "Planned maintenance: "+description, p.ID, bucket, createdBy, now, now,
			)
			if err != nil {
				return fmt.Errorf("creating planned work order: %w", err)
			}
			n, err := rowsAffected(res)
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
