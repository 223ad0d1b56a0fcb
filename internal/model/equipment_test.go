package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleNodes() []EquipmentNode {
	return []EquipmentNode{
		{ID: "root", IsRoot: true, Name: "Equipment", Kind: NodeKindFolder},
		{ID: "b", ParentID: ptr("root"), Name: "Beta", Kind: NodeKindFolder, SortOrder: 1},
		{ID: "a", ParentID: ptr("root"), Name: "Alpha", Kind: NodeKindFolder, SortOrder: 1},
		{ID: "z", ParentID: ptr("root"), Name: "Zulu", Kind: NodeKindAsset, SortOrder: 0},
		{ID: "a1", ParentID: ptr("a"), Name: "Pump", Kind: NodeKindAsset, Code: "P-1", Inv: "INV-7"},
		{ID: "orphan", ParentID: ptr("missing"), Name: "Orphan", Kind: NodeKindAsset},
	}
}

func TestBuildTreeOrdering(t *testing.T) {
	children := BuildTree(sampleNodes(), "root")
	require.Len(t, children, 3)

	// Sort order first, then name.
	assert.Equal(t, "z", children[0].ID)
	assert.Equal(t, "a", children[1].ID)
	assert.Equal(t, "b", children[2].ID)

	require.Len(t, children[1].Children, 1)
	pump := children[1].Children[0]
	assert.Equal(t, "Pump", pump.Name)
	assert.Equal(t, NodeKindAsset, pump.Kind)
	assert.Equal(t, "P-1", pump.Code)
	assert.Equal(t, "INV-7", pump.Inv)
	assert.Empty(t, pump.Children)
	assert.NotNil(t, pump.Children)
}

func TestBuildTreeUnknownParent(t *testing.T) {
	assert.Empty(t, BuildTree(sampleNodes(), "nope"))
	assert.Empty(t, BuildTree(nil, "root"))
}

func TestBuildTreeIgnoresCycles(t *testing.T) {
	nodes := []EquipmentNode{
		{ID: "root", IsRoot: true, Name: "Root", Kind: NodeKindFolder},
		{ID: "x", ParentID: ptr("root"), Name: "X", Kind: NodeKindFolder},
		{ID: "y", ParentID: ptr("x"), Name: "Y", Kind: NodeKindFolder},
		{ID: "x2", ParentID: ptr("y"), Name: "X again", Kind: NodeKindFolder},
		{ID: "root2", ParentID: ptr("x2"), Name: "Loop", Kind: NodeKindFolder},
	}
	nodes = append(nodes, EquipmentNode{ID: "x", ParentID: ptr("root2"), Name: "X", Kind: NodeKindFolder})

	children := BuildTree(nodes, "root")
	require.Len(t, children, 1)
	assert.Equal(t, "x", children[0].ID)
}

func TestMaterializeTree(t *testing.T) {
	root := MaterializeTree(sampleNodes())
	require.NotNil(t, root)
	assert.Equal(t, "root", root.ID)
	assert.Len(t, root.Children, 3)

	assert.Nil(t, MaterializeTree(nil))
	assert.Nil(t, MaterializeTree(sampleNodes()[1:]))
}

func TestFlattenTreeRoundTrip(t *testing.T) {
	nodes := sampleNodes()[:5]
	root := MaterializeTree(nodes)
	require.NotNil(t, root)

	flat := FlattenTree(root)
	require.Len(t, flat, len(nodes))

	// Pre-order: root, then each subtree in sibling order.
	ids := make([]string, len(flat))
	for i, n := range flat {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"root", "z", "a", "a1", "b"}, ids)

	again := MaterializeTree(flat)
	assert.Equal(t, root, again)
}

func TestFlattenTreeNil(t *testing.T) {
	assert.Nil(t, FlattenTree(nil))
}
