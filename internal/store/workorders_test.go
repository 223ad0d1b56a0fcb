package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/toir/internal/model"
)

func mustCreateWorkOrder(t *testing.T, database *sql.DB, in model.WorkOrderInput) *model.WorkOrder {
	t.Helper()
	wo, err := CreateWorkOrder(context.Background(), database, in, nil)
	require.NoError(t, err)
	return wo
}

func TestCreateWorkOrder(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	tech, err := CreateUser(ctx, database, "ivanov", "hash", "Ivanov I.", model.RoleTechnician)
	require.NoError(t, err)

	wo, err := CreateWorkOrder(ctx, database, model.WorkOrderInput{
		Equipment: "Gearbox", EquipmentNodeID: ptr("gear"), Location: "Shop #1",
		WorkType: model.WorkTypeEmergency, Priority: model.PriorityHigh,
		Description: "oil leak", AssignedTo: &tech.ID,
	}, &tech.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, wo.Status)
	assert.Equal(t, "Shop #1", wo.Location)
	require.NotNil(t, wo.AssignedTo)
	assert.Equal(t, tech.ID, *wo.AssignedTo)
	require.NotNil(t, wo.CreatedBy)
	assert.Nil(t, wo.PlanID)
	assert.False(t, wo.CreatedAt.IsZero())
}

func TestCreateWorkOrderValidation(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   model.WorkOrderInput
	}{
		{"missing equipment", model.WorkOrderInput{WorkType: model.WorkTypePlanned, Priority: model.PriorityLow}},
		{"bad work type", model.WorkOrderInput{Equipment: "x", WorkType: "Routine", Priority: model.PriorityLow}},
		{"bad priority", model.WorkOrderInput{Equipment: "x", WorkType: model.WorkTypePlanned, Priority: "urgent"}},
		{"not open", model.WorkOrderInput{Equipment: "x", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow, Status: model.StatusDone}},
		{"unknown node", model.WorkOrderInput{Equipment: "x", EquipmentNodeID: ptr("nope"), WorkType: model.WorkTypePlanned, Priority: model.PriorityLow}},
		{"unknown assignee", model.WorkOrderInput{Equipment: "x", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow, AssignedTo: ptr(int64(99))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateWorkOrder(ctx, database, tt.in, nil)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
	assert.Equal(t, 0, countRows(t, database, "work_orders"))
}

func TestUpdateWorkOrderStatus(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()
	wo := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Gearbox", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	})

	_, err := UpdateWorkOrder(ctx, database, wo.ID, model.WorkOrderPatch{Status: ptr(model.StatusDone)})
	assert.ErrorIs(t, err, model.ErrInvalid, "open cannot skip to done")

	got, err := UpdateWorkOrder(ctx, database, wo.ID, model.WorkOrderPatch{Status: ptr(model.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	got, err = UpdateWorkOrder(ctx, database, wo.ID, model.WorkOrderPatch{
		Status: ptr(model.StatusDone), Description: ptr("replaced seal"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "replaced seal", got.Description)

	_, err = UpdateWorkOrder(ctx, database, wo.ID, model.WorkOrderPatch{Status: ptr(model.StatusOpen)})
	assert.ErrorIs(t, err, model.ErrInvalid, "done is terminal")

	_, err = UpdateWorkOrder(ctx, database, 999, model.WorkOrderPatch{Priority: ptr(model.PriorityHigh)})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListWorkOrdersFilter(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	a, err := CreateUser(ctx, database, "a", "hash", "", model.RoleTechnician)
	require.NoError(t, err)
	b, err := CreateUser(ctx, database, "b", "hash", "", model.RoleTechnician)
	require.NoError(t, err)

	first := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Gearbox", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow, AssignedTo: &a.ID,
	})
	second := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Bearing", WorkType: model.WorkTypeEmergency, Priority: model.PriorityHigh, AssignedTo: &a.ID,
	})
	mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Line", WorkType: model.WorkTypePlanned, Priority: model.PriorityMedium, AssignedTo: &b.ID,
	})
	mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Shop", WorkType: model.WorkTypePlanned, Priority: model.PriorityMedium,
	})

	all, err := ListWorkOrders(ctx, database, WorkOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := ListWorkOrders(ctx, database, WorkOrderFilter{AssignedTo: &a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)

	_, err = UpdateWorkOrder(ctx, database, first.ID, model.WorkOrderPatch{Status: ptr(model.StatusInProgress)})
	require.NoError(t, err)
	active, err := ListWorkOrders(ctx, database, WorkOrderFilter{AssignedTo: &a.ID, Status: model.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
}

func TestGetWorkOrderStats(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	empty, err := GetWorkOrderStats(ctx, database, WorkOrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStats{}, *empty)

	tech, err := CreateUser(ctx, database, "tech", "hash", "", model.RoleTechnician)
	require.NoError(t, err)

	a := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "A", WorkType: model.WorkTypeEmergency, Priority: model.PriorityHigh, AssignedTo: &tech.ID,
	})
	b := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "B", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	})
	mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "C", WorkType: model.WorkTypeEmergency, Priority: model.PriorityMedium,
	})

	_, err = UpdateWorkOrder(ctx, database, a.ID, model.WorkOrderPatch{Status: ptr(model.StatusInProgress)})
	require.NoError(t, err)
	for _, s := range []string{model.StatusInProgress, model.StatusDone} {
		_, err = UpdateWorkOrder(ctx, database, b.ID, model.WorkOrderPatch{Status: ptr(s)})
		require.NoError(t, err)
	}

	stats, err := GetWorkOrderStats(ctx, database, WorkOrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStats{Total: 3, Open: 1, InProgress: 1, Done: 1, Emergencies: 2}, *stats)

	own, err := GetWorkOrderStats(ctx, database, WorkOrderFilter{AssignedTo: &tech.ID})
	require.NoError(t, err)
	assert.Equal(t, model.WorkOrderStats{Total: 1, InProgress: 1, Emergencies: 1}, *own)
}

func TestDeleteWorkOrder(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()
	wo := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Gearbox", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	})

	require.NoError(t, DeleteWorkOrder(ctx, database, wo.ID))
	got, err := GetWorkOrder(ctx, database, wo.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, DeleteWorkOrder(ctx, database, wo.ID), model.ErrNotFound)
}

func TestCreateWorkOrderResolvesEquipmentByName(t *testing.T) {
	database := seededDB(t)

	wo := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Gearbox", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	})
	require.NotNil(t, wo.EquipmentNodeID)
	assert.Equal(t, "gear", *wo.EquipmentNodeID)

	// Folders and unknown names stay unlinked.
	for _, name := range []string{"Production lines", "Compressor"} {
		wo := mustCreateWorkOrder(t, database, model.WorkOrderInput{
			Equipment: name, WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
		})
		assert.Nil(t, wo.EquipmentNodeID, name)
	}
}

func TestWorkOrderKeepsHistoryWhenNodeDeleted(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()
	wo := mustCreateWorkOrder(t, database, model.WorkOrderInput{
		Equipment: "Gearbox", EquipmentNodeID: ptr("gear"), WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	})

	require.NoError(t, DeleteNode(ctx, database, "gear"))

	got, err := GetWorkOrder(ctx, database, wo.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.EquipmentNodeID)
	assert.Equal(t, "Gearbox", got.Equipment)
}
