package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    full_name     TEXT,
    role          TEXT NOT NULL DEFAULT 'technician' CHECK (role IN ('admin', 'manager', 'technician')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS equipment_nodes (
    id          TEXT PRIMARY KEY,
    parent_id   TEXT REFERENCES equipment_nodes(id) ON DELETE CASCADE,
    is_root     INTEGER NOT NULL DEFAULT 0,
    name        TEXT NOT NULL,
    node_type   TEXT NOT NULL CHECK (node_type IN ('folder', 'asset')),
    code        TEXT,
    inv         TEXT,
    serial      TEXT,
    location    TEXT,
    sort_order  INTEGER NOT NULL DEFAULT 0,
    image       BLOB,
    image_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((is_root = 1 AND parent_id IS NULL) OR (is_root = 0 AND parent_id IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_nodes_single_root
    ON equipment_nodes(is_root) WHERE is_root = 1;

CREATE INDEX IF NOT EXISTS idx_equipment_nodes_parent
    ON equipment_nodes(parent_id);

CREATE TABLE IF NOT EXISTS maintenance_types (
    id              INTEGER PRIMARY KEY,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    frequency_type  TEXT NOT NULL CHECK (frequency_type IN ('hours', 'days', 'weeks', 'months', 'kilometers')),
    frequency_value INTEGER NOT NULL CHECK (frequency_value > 0),
    description     TEXT,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS maintenance_plans (
    id                    INTEGER PRIMARY KEY,
    equipment_node_id     TEXT NOT NULL REFERENCES equipment_nodes(id) ON DELETE CASCADE,
    equipment_name        TEXT NOT NULL,
    maintenance_type_id   INTEGER REFERENCES maintenance_types(id) ON DELETE SET NULL,
    frequency_type        TEXT NOT NULL CHECK (frequency_type IN ('hours', 'days', 'weeks', 'months')),
    frequency_value       INTEGER NOT NULL CHECK (frequency_value > 0),
    description           TEXT,
    last_maintenance_date DATETIME,
    next_due_date         DATETIME NOT NULL,
    is_active             INTEGER NOT NULL DEFAULT 1,
    created_by            INTEGER REFERENCES users(id),
    created_at            DATETIME NOT NULL,
    updated_at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_maintenance_plans_due
    ON maintenance_plans(is_active, next_due_date);

CREATE TABLE IF NOT EXISTS work_orders (
    id                INTEGER PRIMARY KEY,
    equipment         TEXT NOT NULL,
    equipment_node_id TEXT REFERENCES equipment_nodes(id) ON DELETE SET NULL,
    location          TEXT,
    work_type         TEXT NOT NULL CHECK (work_type IN ('Emergency', 'Planned')),
    priority          TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
    status            TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'done')),
    description       TEXT,
    plan_id           INTEGER REFERENCES maintenance_plans(id) ON DELETE SET NULL,
    auto_bucket       TEXT,
    created_by        INTEGER REFERENCES users(id),
    assigned_to       INTEGER REFERENCES users(id),
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_work_orders_assigned
    ON work_orders(assigned_to);

CREATE TABLE IF NOT EXISTS maintenance_history (
    id                  INTEGER PRIMARY KEY,
    equipment_node_id   TEXT NOT NULL REFERENCES equipment_nodes(id) ON DELETE CASCADE,
    plan_id             INTEGER REFERENCES maintenance_plans(id) ON DELETE SET NULL,
    maintenance_type_id INTEGER REFERENCES maintenance_types(id) ON DELETE SET NULL,
    work_order_id       INTEGER REFERENCES work_orders(id) ON DELETE SET NULL,
    performed_at        DATETIME NOT NULL,
    performed_by        INTEGER REFERENCES users(id),
    status              TEXT NOT NULL DEFAULT 'completed',
    notes               TEXT,
    runtime_at_service  INTEGER
);

CREATE TABLE IF NOT EXISTS spare_parts (
    id              INTEGER PRIMARY KEY,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT,
    manufacturer    TEXT,
    unit_of_measure TEXT,
    unit_price      TEXT NOT NULL DEFAULT '0',
    supplier        TEXT,
    category        TEXT,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS spare_parts_stock (
    id                INTEGER PRIMARY KEY,
    spare_part_id     INTEGER NOT NULL UNIQUE REFERENCES spare_parts(id) ON DELETE CASCADE,
    quantity_on_hand  INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
    quantity_reserved INTEGER NOT NULL DEFAULT 0 CHECK (quantity_reserved >= 0),
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS spare_part_usage (
    id            INTEGER PRIMARY KEY,
    work_order_id INTEGER NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
    spare_part_id INTEGER NOT NULL REFERENCES spare_parts(id) ON DELETE CASCADE,
    quantity_used INTEGER NOT NULL CHECK (quantity_used > 0),
    unit_price    TEXT NOT NULL DEFAULT '0',
    issued_by     INTEGER REFERENCES users(id),
    issued_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes         TEXT
);

CREATE TABLE IF NOT EXISTS materials (
    id              INTEGER PRIMARY KEY,
    code            TEXT NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT,
    unit_of_measure TEXT,
    unit_price      TEXT NOT NULL DEFAULT '0',
    supplier        TEXT,
    category        TEXT,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS material_usage (
    id            INTEGER PRIMARY KEY,
    work_order_id INTEGER NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
    material_id   INTEGER NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
    quantity_used TEXT NOT NULL,
    unit_price    TEXT NOT NULL DEFAULT '0',
    issued_by     INTEGER REFERENCES users(id),
    issued_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes         TEXT
);

CREATE TABLE IF NOT EXISTS equipment_runtime (
    id                INTEGER PRIMARY KEY,
    equipment_node_id TEXT NOT NULL REFERENCES equipment_nodes(id) ON DELETE CASCADE,
    recorded_at       DATETIME NOT NULL,
    runtime_hours     TEXT,
    mileage_km        TEXT,
    engine_hours      TEXT,
    recorded_by       INTEGER REFERENCES users(id),
    notes             TEXT
);

CREATE INDEX IF NOT EXISTS idx_equipment_runtime_node
    ON equipment_runtime(equipment_node_id, recorded_at);

CREATE TABLE IF NOT EXISTS work_order_operations (
    id               INTEGER PRIMARY KEY,
    work_order_id    INTEGER NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
    operation_number INTEGER NOT NULL CHECK (operation_number > 0),
    description      TEXT NOT NULL,
    estimated_hours  TEXT,
    actual_hours     TEXT,
    status           TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'completed')),
    start_time       DATETIME,
    end_time         DATETIME,
    assigned_to      INTEGER REFERENCES users(id),
    notes            TEXT,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL,
    UNIQUE (work_order_id, operation_number)
);

CREATE TABLE IF NOT EXISTS work_types (
    id          INTEGER PRIMARY KEY,
    code        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    description TEXT,
    is_active   INTEGER NOT NULL DEFAULT 1
);

INSERT OR IGNORE INTO work_types (code, name, description) VALUES
    ('Emergency', 'Emergency repair', 'Unplanned repair after a failure'),
    ('Planned', 'Planned maintenance', 'Scheduled preventive maintenance');
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
