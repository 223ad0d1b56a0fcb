package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: superseded by migration 3. The first version of the
	// auto-order index ignored work_type, so a reclassified order kept
	// blocking the next pass for its equipment.
	`DROP INDEX IF EXISTS idx_work_orders_auto_bucket`,
	// Migration 2: speed up the trailing-window duplicate lookup.
	`CREATE INDEX IF NOT EXISTS idx_work_orders_equipment_open
	     ON work_orders(equipment_node_id, work_type, status, created_at)`,
	// Migration 3: at most one unfinished auto-generated Planned work order
	// per equipment per UTC day. Backstops the scheduler's check-then-insert
	// across processes.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_orders_auto_planned
	     ON work_orders(equipment_node_id, auto_bucket)
	     WHERE auto_bucket IS NOT NULL AND work_type = 'Planned' AND status IN ('open', 'in_progress')`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
