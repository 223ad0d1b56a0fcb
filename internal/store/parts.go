package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/toir/internal/model"
)

const sparePartColumns = `id, code, name, description, manufacturer, unit_of_measure, unit_price,
	supplier, category, is_active, created_at, updated_at`

func scanSparePart(s rowScanner) (*model.SparePart, error) {
	p := &model.SparePart{}
	var description, manufacturer, unit, supplier, category sql.NullString
	err := s.Scan(&p.ID, &p.Code, &p.Name, &description, &manufacturer, &unit, &p.UnitPrice,
		&supplier, &category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Manufacturer = manufacturer.String
	p.UnitOfMeasure = unit.String
	p.Supplier = supplier.String
	p.Category = category.String
	return p, nil
}

// CreateSparePart creates a spare part together with its empty stock row.
func CreateSparePart(ctx context.Context, db *sql.DB, in model.SparePartInput) (*model.SparePart, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		now := nowUTC()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO spare_parts
			     (code, name, description, manufacturer, unit_of_measure, unit_price, supplier, category,
			      created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.Code, in.Name, nullString(in.Description), nullString(in.Manufacturer),
			nullString(in.UnitOfMeasure), in.UnitPrice, nullString(in.Supplier), nullString(in.Category),
			now, now,
		)
		if err != nil {
			return fmt.Errorf("creating spare part: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting spare part id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO spare_parts_stock (spare_part_id, updated_at) VALUES (?, ?)`, id, now)
		if err != nil {
			return fmt.Errorf("creating spare part stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetSparePart(ctx, db, id)
}

// GetSparePart returns a spare part by ID.
func GetSparePart(ctx context.Context, db *sql.DB, id int64) (*model.SparePart, error) {
	p, err := scanSparePart(db.QueryRowContext(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting spare part: %w", err)
	}
	return p, nil
}

// ListSpareParts returns the active spare parts ordered by name.
func ListSpareParts(ctx context.Context, db *sql.DB) ([]model.SparePart, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing spare parts: %w", err)
	}
	defer rows.Close()

	var parts []model.SparePart
	for rows.Next() {
		p, err := scanSparePart(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning spare part: %w", err)
		}
		parts = append(parts, *p)
	}
	return parts, rows.Err()
}

// UpdateSparePart replaces a spare part's attributes.
func UpdateSparePart(ctx context.Context, db *sql.DB, id int64, in model.SparePartInput) (*model.SparePart, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE spare_parts
		 SET code = ?, name = ?, description = ?, manufacturer = ?, unit_of_measure = ?, unit_price = ?,
		     supplier = ?, category = ?, updated_at = ?
		 WHERE id = ? AND is_active = 1`,
		in.Code, in.Name, nullString(in.Description), nullString(in.Manufacturer),
		nullString(in.UnitOfMeasure), in.UnitPrice, nullString(in.Supplier), nullString(in.Category),
		nowUTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating spare part: %w", err)
	}
	if err := expectOne(res, "spare part not found"); err != nil {
		return nil, err
	}

	return GetSparePart(ctx, db, id)
}

// DeleteSparePart deactivates a spare part. Usage history keeps referring to
// it.
func DeleteSparePart(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE spare_parts SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting spare part: %w", err)
	}
	return expectOne(res, "spare part not found")
}

const stockQuery = `SELECT s.id, s.spare_part_id, s.quantity_on_hand, s.quantity_reserved, s.updated_at,
	       p.code, p.name, p.unit_price
	FROM spare_parts_stock s
	JOIN spare_parts p ON p.id = s.spare_part_id`

func scanStock(s rowScanner) (*model.SparePartStock, error) {
	st := &model.SparePartStock{}
	err := s.Scan(&st.ID, &st.SparePartID, &st.QuantityOnHand, &st.QuantityReserved, &st.UpdatedAt,
		&st.Code, &st.Name, &st.UnitPrice)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStock returns the stock levels of active spare parts.
func ListStock(ctx context.Context, db *sql.DB) ([]model.SparePartStock, error) {
	rows, err := db.QueryContext(ctx, stockQuery+` WHERE p.is_active = 1 ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	defer rows.Close()

	var stock []model.SparePartStock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock: %w", err)
		}
		stock = append(stock, *st)
	}
	return stock, rows.Err()
}

// GetStock returns the stock row of one spare part.
func GetStock(ctx context.Context, db *sql.DB, sparePartID int64) (*model.SparePartStock, error) {
	st, err := scanStock(db.QueryRowContext(ctx, stockQuery+` WHERE s.spare_part_id = ?`, sparePartID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting stock: %w", err)
	}
	return st, nil
}

// SetStock sets the quantity on hand of a spare part. The quantity may not
// drop below what is already reserved.
func SetStock(ctx context.Context, db *sql.DB, sparePartID int64, onHand int) (*model.SparePartStock, error) {
	if onHand < 0 {
		return nil, model.Invalidf("quantity_on_hand must not be negative")
	}

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		var reserved int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity_reserved FROM spare_parts_stock WHERE spare_part_id = ?`, sparePartID,
		).Scan(&reserved)
		if err == sql.ErrNoRows {
			return model.NotFoundf("spare part not found")
		}
		if err != nil {
			return fmt.Errorf("getting stock: %w", err)
		}
		if onHand < reserved {
			return model.Invalidf("quantity_on_hand %d is below the reserved quantity %d", onHand, reserved)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE spare_parts_stock SET quantity_on_hand = ?, updated_at = ? WHERE spare_part_id = ?`,
			onHand, nowUTC(), sparePartID,
		)
		if err != nil {
			return fmt.Errorf("updating stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetStock(ctx, db, sparePartID)
}

func workOrderExists(ctx context.Context, q querier, id int64) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM work_orders WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.NotFoundf("work order not found")
	}
	if err != nil {
		return fmt.Errorf("checking work order: %w", err)
	}
	return nil
}

// RecordSparePartUsage reserves stock and records the usage in one
// transaction. When fewer parts are available than requested nothing is
// written. The unit price defaults to the catalogue price.
func RecordSparePartUsage(ctx context.Context, db *sql.DB, in model.SparePartUsageInput, issuedBy *int64) (*model.SparePartUsage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := workOrderExists(ctx, tx, in.WorkOrderID); err != nil {
			return err
		}

		st, err := scanStock(tx.QueryRowContext(ctx,
			stockQuery+` WHERE s.spare_part_id = ? AND p.is_active = 1`, in.SparePartID))
		if err == sql.ErrNoRows {
			return model.NotFoundf("spare part not found")
		}
		if err != nil {
			return fmt.Errorf("getting stock: %w", err)
		}
		if st.Available() < in.QuantityUsed {
			return model.Invalidf("insufficient stock: have %d, need %d", st.Available(), in.QuantityUsed)
		}

		price := st.UnitPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		now := nowUTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE spare_parts_stock SET quantity_reserved = quantity_reserved + ?, updated_at = ?
			 WHERE spare_part_id = ?`,
			in.QuantityUsed, now, in.SparePartID,
		)
		if err != nil {
			return fmt.Errorf("reserving stock: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO spare_part_usage (work_order_id, spare_part_id, quantity_used, unit_price, issued_by, issued_at, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			in.WorkOrderID, in.SparePartID, in.QuantityUsed, price, issuedBy, now, nullString(in.Notes),
		)
		if err != nil {
			return fmt.Errorf("recording spare part usage: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting spare part usage id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	usage, err := listSparePartUsage(ctx, db, `WHERE u.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(usage) == 0 {
		return nil, nil
	}
	return &usage[0], nil
}

// ListSparePartUsage returns the spare parts issued against a work order.
func ListSparePartUsage(ctx context.Context, db *sql.DB, workOrderID int64) ([]model.SparePartUsage, error) {
	return listSparePartUsage(ctx, db, `WHERE u.work_order_id = ?`, workOrderID)
}

func listSparePartUsage(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.SparePartUsage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.work_order_id, u.spare_part_id, u.quantity_used, u.unit_price, u.issued_by,
		        u.issued_at, u.notes, p.code, p.name, p.unit_of_measure, us.full_name
		 FROM spare_part_usage u
		 JOIN spare_parts p ON p.id = u.spare_part_id
		 LEFT JOIN users us ON us.id = u.issued_by
		 `+where+`
		 ORDER BY u.issued_at DESC, u.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing spare part usage: %w", err)
	}
	defer rows.Close()

	var usage []model.SparePartUsage
	for rows.Next() {
		var u model.SparePartUsage
		var notes, unit, fullName sql.NullString
		if err := rows.Scan(&u.ID, &u.WorkOrderID, &u.SparePartID, &u.QuantityUsed, &u.UnitPrice, &u.IssuedBy,
			&u.IssuedAt, &notes, &u.Code, &u.Name, &unit, &fullName); err != nil {
			return nil, fmt.Errorf("scanning spare part usage: %w", err)
		}
		u.Notes = notes.String
		u.UnitOfMeasure = unit.String
		u.IssuedByName = fullName.String
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
