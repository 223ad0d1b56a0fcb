package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/erazemk/toir/internal/model"
)

const nodeColumns = `id, parent_id, is_root, name, node_type, code, inv, serial, location,
	sort_order, image_mime, created_at, updated_at`

func scanNode(s rowScanner) (*model.EquipmentNode, error) {
	n := &model.EquipmentNode{}
	var parentID, code, inv, serial, location, imageMime sql.NullString
	err := s.Scan(&n.ID, &parentID, &n.IsRoot, &n.Name, &n.Kind, &code, &inv, &serial, &location,
		&n.SortOrder, &imageMime, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.Code = code.String
	n.Inv = inv.String
	n.Serial = serial.String
	n.Location = location.String
	n.ImageMime = imageMime.String
	return n, nil
}

func queryNodes(ctx context.Context, q querier, where string, args ...any) ([]model.EquipmentNode, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM equipment_nodes `+where+` ORDER BY sort_order, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing equipment nodes: %w", err)
	}
	defer rows.Close()

	var nodes []model.EquipmentNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// ListNodes returns every equipment node as a flat list.
func ListNodes(ctx context.Context, db *sql.DB) ([]model.EquipmentNode, error) {
	return queryNodes(ctx, db, "")
}

// ListAssets returns the asset nodes (the things work orders and plans refer
// to), without folders.
func ListAssets(ctx context.Context, db *sql.DB) ([]model.EquipmentNode, error) {
	return queryNodes(ctx, db, "WHERE node_type = ?", model.NodeKindAsset)
}

func getNode(ctx context.Context, q querier, id string) (*model.EquipmentNode, error) {
	n, err := scanNode(q.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM equipment_nodes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment node: %w", err)
	}
	return n, nil
}

// GetNode returns an equipment node by ID.
func GetNode(ctx context.Context, db *sql.DB, id string) (*model.EquipmentNode, error) {
	return getNode(ctx, db, id)
}

// GetTree materializes the equipment hierarchy. It returns nil when the tree
// has no root.
func GetTree(ctx context.Context, db *sql.DB) (*model.TreeNode, error) {
	nodes, err := ListNodes(ctx, db)
	if err != nil {
		return nil, err
	}
	return model.MaterializeTree(nodes), nil
}

func rootID(ctx context.Context, q querier) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM equipment_nodes WHERE is_root = 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting root node: %w", err)
	}
	return id, nil
}

// CreateNode inserts a node under in.ParentID, or under the root when no
// parent is given. The node is appended after its siblings unless a sort
// order is supplied.
func CreateNode(ctx context.Context, db *sql.DB, in model.NodeInput) (*model.EquipmentNode, error) {
	if in.Name == "" || in.Kind == "" {
		return nil, model.Invalidf("name and node_type are required")
	}
	if !model.ValidNodeKind(in.Kind) {
		return nil, model.Invalidf("node_type must be 'folder' or 'asset'")
	}

	id := uuid.NewString()
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		parentID := in.ParentID
		if parentID == "" {
			root, err := rootID(ctx, tx)
			if err != nil {
				return err
			}
			if root == "" {
				return model.Invalidf("equipment tree has no root")
			}
			parentID = root
		} else {
			parent, err := getNode(ctx, tx, parentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return model.Invalidf("parent node %q does not exist", parentID)
			}
		}

		var sortOrder int
		if in.SortOrder != nil {
			sortOrder = *in.SortOrder
		} else if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM equipment_nodes WHERE parent_id = ?`, parentID,
		).Scan(&sortOrder); err != nil {
			return fmt.Errorf("computing sort order: %w", err)
		}

		now := nowUTC()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_nodes
			     (id, parent_id, is_root, name, node_type, code, inv, serial, location, sort_order, created_at, updated_at)
			 VALUES (?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, parentID, in.Name, in.Kind, nullString(in.Code), nullString(in.Inv),
			nullString(in.Serial), nullString(in.Location), sortOrder, now, now,
		)
		if err != nil {
			return fmt.Errorf("creating equipment node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetNode(ctx, db, id)
}

// isDescendantOrSelf reports whether candidate is id or lies below it.
func isDescendantOrSelf(ctx context.Context, q querier, id, candidate string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`WITH RECURSIVE ancestors(id, parent_id) AS (
		     SELECT id, parent_id FROM equipment_nodes WHERE id = ?
		     UNION ALL
		     SELECT e.id, e.parent_id FROM equipment_nodes e JOIN ancestors a ON e.id = a.parent_id
		 )
		 SELECT COUNT(*) FROM ancestors WHERE id = ?`,
		candidate, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking node ancestry: %w", err)
	}
	return count > 0, nil
}

// UpdateNode applies a partial update. Fields left nil keep their value. A
// parent change moves the node with its subtree; the root cannot be moved and
// a node cannot be moved below itself.
func UpdateNode(ctx context.Context, db *sql.DB, id string, patch model.NodePatch) (*model.EquipmentNode, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.Invalidf("name must not be empty")
	}

	err := withTx(ctx, db, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return model.NotFoundf("equipment node not found")
		}

		if patch.ParentID != nil && (n.ParentID == nil || *patch.ParentID != *n.ParentID) {
			if n.IsRoot {
				return model.Invalidf("the root node cannot be moved")
			}
			parent, err := getNode(ctx, tx, *patch.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return model.Invalidf("parent node %q does not exist", *patch.ParentID)
			}
			cycle, err := isDescendantOrSelf(ctx, tx, id, parent.ID)
			if err != nil {
				return err
			}
			if cycle {
				return model.Invalidf("a node cannot be moved below itself")
			}
			n.ParentID = &parent.ID
		}

		if patch.Name != nil {
			n.Name = *patch.Name
		}
		if patch.Code != nil {
			n.Code = *patch.Code
		}
		if patch.Inv != nil {
			n.Inv = *patch.Inv
		}
		if patch.Serial != nil {
			n.Serial = *patch.Serial
		}
		if patch.Location != nil {
			n.Location = *patch.Location
		}
		if patch.SortOrder != nil {
			n.SortOrder = *patch.SortOrder
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE equipment_nodes
			 SET parent_id = ?, name = ?, code = ?, inv = ?, serial = ?, location = ?, sort_order = ?, updated_at = ?
			 WHERE id = ?`,
			n.ParentID, n.Name, nullString(n.Code), nullString(n.Inv), nullString(n.Serial),
			nullString(n.Location), n.SortOrder, nowUTC(), id,
		)
		if err != nil {
			return fmt.Errorf("updating equipment node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetNode(ctx, db, id)
}

// DeleteNode deletes a node and, through the foreign key cascade, its whole
// subtree. The root cannot be deleted.
func DeleteNode(ctx context.Context, db *sql.DB, id string) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return model.NotFoundf("equipment node not found")
		}
		if n.IsRoot {
			return model.Invalidf("the root node cannot be deleted")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM equipment_nodes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting equipment node: %w", err)
		}
		return nil
	})
}

// templateNodes is the demonstration hierarchy restored by ResetEquipment.
var templateNodes = []model.EquipmentNode{
	{ID: "root", IsRoot: true, Name: "Main structure", Kind: model.NodeKindFolder},
	{ID: "eq-ind", ParentID: strPtr("root"), Name: "General industrial equipment", Kind: model.NodeKindFolder, SortOrder: 1},
	{ID: "lines", ParentID: strPtr("eq-ind"), Name: "Production lines", Kind: model.NodeKindFolder, SortOrder: 1},
	{ID: "line1", ParentID: strPtr("lines"), Name: "Assembly line #1", Kind: model.NodeKindAsset,
		Code: "L-001", Inv: "INV-1001", Serial: "SN-88421", Location: "Shop #1", SortOrder: 1},
	{ID: "gear", ParentID: strPtr("line1"), Name: "Gearbox", Kind: model.NodeKindAsset,
		Code: "R-10", Inv: "INV-204", Serial: "SN-2211", Location: "Shop #1", SortOrder: 1},
	{ID: "bearing", ParentID: strPtr("gear"), Name: "Bearing", Kind: model.NodeKindAsset,
		Code: "B-7", Inv: "INV-777", Serial: "SN-7777", Location: "Shop #1", SortOrder: 1},
}

func strPtr(s string) *string { return &s }

// ResetEquipment replaces the whole hierarchy with the demonstration template
// and returns the rebuilt tree. Plans and history attached to removed nodes are
// deleted with them; work orders keep their equipment name but lose the link.
func ResetEquipment(ctx context.Context, db *sql.DB) (*model.TreeNode, error) {
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM equipment_nodes`); err != nil {
			return fmt.Errorf("clearing equipment nodes: %w", err)
		}

		now := nowUTC()
		for _, n := range templateNodes {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO equipment_nodes
				     (id, parent_id, is_root, name, node_type, code, inv, serial, location, sort_order, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				n.ID, n.ParentID, n.IsRoot, n.Name, n.Kind, nullString(n.Code), nullString(n.Inv),
				nullString(n.Serial), nullString(n.Location), n.SortOrder, now, now,
			)
			if err != nil {
				return fmt.Errorf("seeding equipment node %s: %w", n.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetTree(ctx, db)
}

// SetNodeImage stores a node's photo.
func SetNodeImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE equipment_nodes SET image = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, mime, nowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment image: %w", err)
	}
	return expectOne(res, "equipment node not found")
}

// GetNodeImage returns a node's photo and its MIME type.
func GetNodeImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment_nodes WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}
