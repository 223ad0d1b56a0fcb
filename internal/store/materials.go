package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

const materialColumns = `id, code, name, description, unit_of_measure, unit_price, supplier, category,
	is_active, created_at, updated_at`

func scanMaterial(s rowScanner) (*model.Material, error) {
	m := &model.Material{}
	var description, unit, supplier, category sql.NullString
	err := s.Scan(&m.ID, &m.Code, &m.Name, &description, &unit, &m.UnitPrice, &supplier, &category,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Description = description.String
	m.UnitOfMeasure = unit.String
	m.Supplier = supplier.String
	m.Category = category.String
	return m, nil
}

// CreateMaterial creates a material.
func CreateMaterial(ctx context.Context, db *sql.DB, in model.MaterialInput) (*model.Material, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := nowUTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO materials
		     (code, name, description, unit_of_measure, unit_price, supplier, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Code, in.Name, nullString(in.Description), nullString(in.UnitOfMeasure), in.UnitPrice,
		nullString(in.Supplier), nullString(in.Category), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating material: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting material id: %w", err)
	}

	return GetMaterial(ctx, db, id)
}

// GetMaterial returns a material by ID.
func GetMaterial(ctx context.Context, db *sql.DB, id int64) (*model.Material, error) {
	m, err := scanMaterial(db.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting material: %w", err)
	}
	return m, nil
}

// ListMaterials returns the active materials ordered by name.
func ListMaterials(ctx context.Context, db *sql.DB) ([]model.Material, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing materials: %w", err)
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		materials = append(materials, *m)
	}
	return materials, rows.Err()
}

// UpdateMaterial replaces a material's attributes.
func UpdateMaterial(ctx context.Context, db *sql.DB, id int64, in model.MaterialInput) (*model.Material, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE materials
		 SET code = ?, name = ?, description = ?, unit_of_measure = ?, unit_price = ?, supplier = ?,
		     category = ?, updated_at = ?
		 WHERE id = ? AND is_active = 1`,
		in.Code, in.Name, nullString(in.Description), nullString(in.UnitOfMeasure), in.UnitPrice,
		nullString(in.Supplier), nullString(in.Category), nowUTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating material: %w", err)
	}
	if err := expectOne(res, "material not found"); err != nil {
		return nil, err
	}

	return GetMaterial(ctx, db, id)
}

// DeleteMaterial deactivates a material.
func DeleteMaterial(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE materials SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting material: %w", err)
	}
	return expectOne(res, "material not found")
}

// RecordMaterialUsage records materials issued against a work order. The unit
// price defaults to the catalogue price.
func RecordMaterialUsage(ctx context.Context, db *sql.DB, in model.MaterialUsageInput, issuedBy *int64) (*model.MaterialUsage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := workOrderExists(ctx, tx, in.WorkOrderID); err != nil {
			return err
		}

		var m model.Material
		err := tx.QueryRowContext(ctx,
			`SELECT unit_price FROM materials WHERE id = ? AND is_active = 1`, in.MaterialID,
		).Scan(&m.UnitPrice)
		if err == sql.ErrNoRows {
			return model.NotFoundf("material not found")
		}
		if err != nil {
			return fmt.Errorf("getting material: %w", err)
		}

		price := m.UnitPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO material_usage (work_order_id, material_id, quantity_used, unit_price, issued_by, issued_at, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.WorkOrderID, in.MaterialID, in.QuantityUsed, price, issuedBy, nowUTC(), nullString(in.Notes),
		)
		if err != nil {
			return fmt.Errorf("recording material usage: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting material usage id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	usage, err := listMaterialUsage(ctx, db, `WHERE u.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(usage) == 0 {
		return nil, nil
	}
	return &usage[0], nil
}

// ListMaterialUsage returns the materials issued against a work order.
func ListMaterialUsage(ctx context.Context, db *sql.DB, workOrderID int64) ([]model.MaterialUsage, error) {
	return listMaterialUsage(ctx, db, `WHERE u.work_order_id = ?`, workOrderID)
}

func listMaterialUsage(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.MaterialUsage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.work_order_id, u.material_id, u.quantity_used, u.unit_price, u.issued_by,
		        u.issued_at, u.notes, m.code, m.name, m.unit_of_measure, us.full_name
		 FROM material_usage u
		 JOIN materials m ON m.id = u.material_id
		 LEFT JOIN users us ON us.id = u.issued_by
		 `+where+`
		 ORDER BY u.issued_at DESC, u.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing material usage: %w", err)
	}
	defer rows.Close()

	var usage []model.MaterialUsage
	for rows.Next() {
		var u model.MaterialUsage
		var notes, unit, fullName sql.NullString
		if err := rows.Scan(&u.ID, &u.WorkOrderID, &u.MaterialID, &u.QuantityUsed, &u.UnitPrice, &u.IssuedBy,
			&u.IssuedAt, &notes, &u.Code, &u.Name, &unit, &fullName); err != nil {
			return nil, fmt.Errorf("scanning material usage: %w", err)
		}
		u.Notes = notes.String
		u.UnitOfMeasure = unit.String
		u.IssuedByName = fullName.String
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
