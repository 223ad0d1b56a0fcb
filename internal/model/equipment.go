package model

import (
	"sort"
	"time"
)

// Node kinds.
const (
	NodeKindFolder = "folder"
	NodeKindAsset  = "asset"
)

// ValidNodeKind reports whether kind is a known node kind.
func ValidNodeKind(kind string) bool {
	return kind == NodeKindFolder || kind == NodeKindAsset
}

// EquipmentNode is one row of the flat equipment hierarchy.
type EquipmentNode struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parent_id"`
	IsRoot    bool      `json:"is_root"`
	Name      string    `json:"name"`
	Kind      string    `json:"node_type"`
	Code      string    `json:"code,omitempty"`
	Inv       string    `json:"inv,omitempty"`
	Serial    string    `json:"serial,omitempty"`
	Location  string    `json:"location,omitempty"`
	SortOrder int       `json:"sort_order"`
	ImageMime string    `json:"image_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeNode is the nested presentation of an equipment node.
type TreeNode struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      string      `json:"type"`
	Code      string      `json:"code,omitempty"`
	Inv       string      `json:"inv,omitempty"`
	Serial    string      `json:"serial,omitempty"`
	Location  string      `json:"location,omitempty"`
	SortOrder int         `json:"sort_order"`
	Children  []*TreeNode `json:"children"`
}

// BuildTree returns the children of parentID, each with its own subtree
// attached. Siblings are ordered by sort order, then name. Nodes that are not
// reachable from parentID are ignored.
func BuildTree(nodes []EquipmentNode, parentID string) []*TreeNode {
	byParent := make(map[string][]EquipmentNode, len(nodes))
	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
	}
	for _, siblings := range byParent {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].SortOrder != siblings[j].SortOrder {
				return siblings[i].SortOrder < siblings[j].SortOrder
			}
			return siblings[i].Name < siblings[j].Name
		})
	}
	return buildChildren(byParent, parentID, map[string]bool{parentID: true})
}

func buildChildren(byParent map[string][]EquipmentNode, parentID string, seen map[string]bool) []*TreeNode {
	children := make([]*TreeNode, 0, len(byParent[parentID]))
	for _, n := range byParent[parentID] {
		// Guards against corrupt data; the schema keeps parent links acyclic.
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		t := newTreeNode(n)
		t.Children = buildChildren(byParent, n.ID, seen)
		children = append(children, t)
	}
	return children
}

// MaterializeTree locates the root among nodes and builds the full tree.
// It returns nil when there is no root.
func MaterializeTree(nodes []EquipmentNode) *TreeNode {
	for _, n := range nodes {
		if n.IsRoot {
			root := newTreeNode(n)
			root.Children = BuildTree(nodes, n.ID)
			return root
		}
	}
	return nil
}

// FlattenTree returns the tree in pre-order as flat nodes with their parent
// links and sibling positions restored.
func FlattenTree(root *TreeNode) []EquipmentNode {
	if root == nil {
		return nil
	}
	out := []EquipmentNode{{ID: root.ID, IsRoot: true, Name: root.Name, Kind: root.Kind, SortOrder: root.SortOrder}}
	var walk func(parent *TreeNode)
	walk = func(parent *TreeNode) {
		for _, c := range parent.Children {
			parentID := parent.ID
			out = append(out, EquipmentNode{
				ID:        c.ID,
				ParentID:  &parentID,
				Name:      c.Name,
				Kind:      c.Kind,
				Code:      c.Code,
				Inv:       c.Inv,
				Serial:    c.Serial,
				Location:  c.Location,
				SortOrder: c.SortOrder,
			})
			walk(c)
		}
	}
	walk(root)
	return out
}

func newTreeNode(n EquipmentNode) *TreeNode {
	return &TreeNode{
		ID:        n.ID,
		Name:      n.Name,
		Kind:      n.Kind,
		Code:      n.Code,
		Inv:       n.Inv,
		Serial:    n.Serial,
		Location:  n.Location,
		SortOrder: n.SortOrder,
	}
}

// NodeInput is the payload for creating an equipment node.
type NodeInput struct {
	ParentID  string `json:"parent_id"`
	Name      string `json:"name"`
	Kind      string `json:"node_type"`
	Code      string `json:"code"`
	Inv       string `json:"inv"`
	Serial    string `json:"serial"`
	Location  string `json:"location"`
	SortOrder *int   `json:"sort_order"`
}

// NodePatch is a partial update of an equipment node. Nil fields are left
// unchanged. A non-nil ParentID moves the node.
type NodePatch struct {
	ParentID  *string `json:"parent_id"`
	Name      *string `json:"name"`
	Code      *string `json:"code"`
	Inv       *string `json:"inv"`
	Serial    *string `json:"serial"`
	Location  *string `json:"location"`
	SortOrder *int    `json:"sort_order"`
}
