package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

// RuntimeHistoryLimit caps the readings returned per equipment.
const RuntimeHistoryLimit = 50

// RecordRuntime stores a meter reading for an existing equipment node.
func RecordRuntime(ctx context.Context, db *sql.DB, in model.EquipmentRuntimeInput, recordedBy *int64) (*model.EquipmentRuntime, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	node, err := GetNode(ctx, db, in.EquipmentNodeID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, model.Invalidf("equipment node %q does not exist", in.EquipmentNodeID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment_runtime
		     (equipment_node_id, recorded_at, runtime_hours, mileage_km, engine_hours, recorded_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.EquipmentNodeID, nowUTC(), in.RuntimeHours, in.MileageKm, in.EngineHours, recordedBy,
		nullString(in.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("recording runtime: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting runtime id: %w", err)
	}

	readings, err := listRuntime(ctx, db, `WHERE r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

// ListRuntime returns the latest readings of an equipment node, newest first.
func ListRuntime(ctx context.Context, db *sql.DB, nodeID string) ([]model.EquipmentRuntime, error) {
	return listRuntime(ctx, db, `WHERE r.equipment_node_id = ?`, nodeID)
}

func listRuntime(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.EquipmentRuntime, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.equipment_node_id, r.recorded_at, r.runtime_hours, r.mileage_km, r.engine_hours,
		        r.recorded_by, r.notes, u.full_name
		 FROM equipment_runtime r
		 LEFT JOIN users u ON u.id = r.recorded_by
		 `+where+`
		 ORDER BY r.recorded_at DESC, r.id DESC
		 LIMIT ?`, append(args, RuntimeHistoryLimit)...)
	if err != nil {
		return nil, fmt.Errorf("listing runtime: %w", err)
	}
	defer rows.Close()

	var readings []model.EquipmentRuntime
	for rows.Next() {
		var e model.EquipmentRuntime
		var notes, fullName sql.NullString
		if err := rows.Scan(&e.ID, &e.EquipmentNodeID, &e.RecordedAt, &e.RuntimeHours, &e.MileageKm,
			&e.EngineHours, &e.RecordedBy, &notes, &fullName); err != nil {
			return nil, fmt.Errorf("scanning runtime: %w", err)
		}
		e.Notes = notes.String
		e.RecordedByName = fullName.String
		readings = append(readings, e)
	}
	return readings, rows.Err()
}
