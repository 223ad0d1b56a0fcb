package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/toir/internal/model"
)

var planNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func mustCreatePlan(t *testing.T, database *sql.DB, nodeID, kind string, value int, now time.Time) *model.MaintenancePlan {
	t.Helper()
	p, err := CreatePlan(context.Background(), database, model.PlanInput{
		EquipmentNodeID: nodeID, FrequencyType: kind, FrequencyValue: &value, Description: "lubrication",
	}, nil, now)
	require.NoError(t, err)
	return p
}

func TestCreatePlan(t *testing.T) {
	database := seededDB(t)

	p := mustCreatePlan(t, database, "gear", model.FrequencyDays, 7, planNow)
	assert.Equal(t, "gear", p.EquipmentNodeID)
	assert.Equal(t, "Gearbox", p.EquipmentName, "name defaults to the node name")
	assert.True(t, p.IsActive)
	assert.Nil(t, p.LastMaintenanceDate)
	assert.True(t, planNow.AddDate(0, 0, 7).Equal(p.NextDueDate), "next due %s", p.NextDueDate)
	assert.True(t, planNow.Equal(p.CreatedAt))
}

func TestCreatePlanValidation(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   model.PlanInput
	}{
		{"missing frequency value", model.PlanInput{EquipmentNodeID: "gear", FrequencyType: model.FrequencyDays}},
		{"missing equipment", model.PlanInput{FrequencyType: model.FrequencyDays, FrequencyValue: ptr(7)}},
		{"zero frequency", model.PlanInput{EquipmentNodeID: "gear", FrequencyType: model.FrequencyDays, FrequencyValue: ptr(0)}},
		{"kilometers", model.PlanInput{EquipmentNodeID: "gear", FrequencyType: model.FrequencyKilometers, FrequencyValue: ptr(5000)}},
		{"unknown equipment", model.PlanInput{EquipmentNodeID: "nope", FrequencyType: model.FrequencyDays, FrequencyValue: ptr(7)}},
		{"unknown type", model.PlanInput{EquipmentNodeID: "gear", FrequencyType: model.FrequencyDays, FrequencyValue: ptr(7), MaintenanceTypeID: ptr(int64(42))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreatePlan(ctx, database, tt.in, nil, planNow)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
	assert.Equal(t, 0, countRows(t, database, "maintenance_plans"))
}

func TestCreatePlanKilometersUnsupported(t *testing.T) {
	database := seededDB(t)

	_, err := CreatePlan(context.Background(), database, model.PlanInput{
		EquipmentNodeID: "gear", FrequencyType: model.FrequencyKilometers, FrequencyValue: ptr(5000),
	}, nil, planNow)
	assert.ErrorIs(t, err, model.ErrUnsupportedFrequency)
}

func TestUpdatePlan(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()
	p := mustCreatePlan(t, database, "gear", model.FrequencyDays, 10, planNow)

	t.Run("description keeps due date", func(t *testing.T) {
		got, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{Description: ptr("oil change")})
		require.NoError(t, err)
		assert.Equal(t, "oil change", got.Description)
		assert.Equal(t, model.FrequencyDays, got.FrequencyType)
		assert.True(t, p.NextDueDate.Equal(got.NextDueDate))
	})

	t.Run("frequency change recomputes from created_at", func(t *testing.T) {
		got, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{
			FrequencyType: ptr(model.FrequencyWeeks), FrequencyValue: ptr(2),
		})
		require.NoError(t, err)
		assert.True(t, planNow.AddDate(0, 0, 14).Equal(got.NextDueDate), "next due %s", got.NextDueDate)
	})

	t.Run("last maintenance date recomputes from it", func(t *testing.T) {
		last := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		got, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{
			LastMaintenanceDate: &model.Timestamp{Time: last},
		})
		require.NoError(t, err)
		require.NotNil(t, got.LastMaintenanceDate)
		assert.True(t, last.Equal(*got.LastMaintenanceDate))
		assert.True(t, last.AddDate(0, 0, 14).Equal(got.NextDueDate), "next due %s", got.NextDueDate)
	})

	t.Run("deactivate", func(t *testing.T) {
		got, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{IsActive: ptr(false)})
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		active, err := ListPlans(ctx, database, false)
		require.NoError(t, err)
		assert.Empty(t, active)
		all, err := ListPlans(ctx, database, true)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("unsupported frequency leaves plan unchanged", func(t *testing.T) {
		_, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{FrequencyType: ptr(model.FrequencyKilometers)})
		assert.ErrorIs(t, err, model.ErrInvalid)
		got, err := GetPlan(ctx, database, p.ID)
		require.NoError(t, err)
		assert.Equal(t, model.FrequencyWeeks, got.FrequencyType)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := UpdatePlan(ctx, database, 999, model.PlanPatch{Description: ptr("x")})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestListPlansForEquipmentAndDelete(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	a := mustCreatePlan(t, database, "gear", model.FrequencyDays, 30, planNow)
	mustCreatePlan(t, database, "gear", model.FrequencyDays, 7, planNow)
	mustCreatePlan(t, database, "bearing", model.FrequencyMonths, 1, planNow)

	plans, err := ListPlansForEquipment(ctx, database, "gear")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.True(t, plans[0].NextDueDate.Before(plans[1].NextDueDate), "ordered by due date")

	require.NoError(t, DeletePlan(ctx, database, a.ID))
	assert.ErrorIs(t, DeletePlan(ctx, database, a.ID), model.ErrNotFound)

	plans, err = ListPlansForEquipment(ctx, database, "gear")
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestAutoCreateDueOrders(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	p := mustCreatePlan(t, database, "gear", model.FrequencyDays, 7, planNow)
	dueAt := planNow.AddDate(0, 0, 7)

	// Not yet within the horizon.
	n, err := AutoCreateDueOrders(ctx, database, dueAt.Add(-48*time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Due tomorrow counts as due.
	n, err = AutoCreateDueOrders(ctx, database, dueAt.Add(-12*time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orders, err := ListWorkOrders(ctx, database, WorkOrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	wo := orders[0]
	assert.Equal(t, model.WorkTypePlanned, wo.WorkType)
	assert.Equal(t, model.PriorityMedium, wo.Priority)
	assert.Equal(t, model.StatusOpen, wo.Status)
	assert.Equal(t, "Gearbox", wo.Equipment)
	assert.Equal(t, "Planned maintenance: lubrication", wo.Description)
	require.NotNil(t, wo.EquipmentNodeID)
	assert.Equal(t, "gear", *wo.EquipmentNodeID)
	require.NotNil(t, wo.PlanID)
	assert.Equal(t, p.ID, *wo.PlanID)

	// Running again right away is a no-op.
	n, err = AutoCreateDueOrders(ctx, database, dueAt.Add(-11*time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, countRows(t, database, "work_orders"))
}

func TestAutoCreateDueOrdersDedupesByEquipment(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	mustCreatePlan(t, database, "gear", model.FrequencyHours, 12, planNow)
	mustCreatePlan(t, database, "bearing", model.FrequencyDays, 1, planNow)

	n, err := AutoCreateDueOrders(ctx, database, planNow.Add(24*time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one order per equipment")
}

func TestAutoCreateDueOrdersSkipsInactive(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	p := mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	_, err := UpdatePlan(ctx, database, p.ID, model.PlanPatch{IsActive: ptr(false)})
	require.NoError(t, err)

	n, err := AutoCreateDueOrders(ctx, database, planNow.AddDate(0, 0, 5), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAutoCreateDueOrdersAfterCompletion(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	runAt := planNow.Add(30 * time.Hour)

	n, err := AutoCreateDueOrders(ctx, database, runAt, 24*time.Hour, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// A finished order no longer suppresses a new one, even on the same day.
	_, err = database.Exec(`UPDATE work_orders SET status = ?`, model.StatusDone)
	require.NoError(t, err)

	n, err = AutoCreateDueOrders(ctx, database, runAt.Add(time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAutoCreateDueOrdersAfterReclassification(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	runAt := planNow.Add(25 * time.Hour)

	n, err := AutoCreateDueOrders(ctx, database, runAt, 24*time.Hour, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// An auto order turned Emergency no longer covers the plan, so the
	// next pass on the same day opens a fresh Planned order.
	orders, err := ListWorkOrders(ctx, database, WorkOrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	_, err = UpdateWorkOrder(ctx, database, orders[0].ID, model.WorkOrderPatch{WorkType: ptr(model.WorkTypeEmergency)})
	require.NoError(t, err)

	n, err = AutoCreateDueOrders(ctx, database, runAt.Add(time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, countRows(t, database, "work_orders"))
}

func TestAutoCreateDueOrdersRespectsOrderByEquipmentName(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	_, err := CreateWorkOrder(ctx, database, model.WorkOrderInput{
		Equipment: "Gearbox", WorkType: model.WorkTypePlanned, Priority: model.PriorityLow,
	}, nil)
	require.NoError(t, err)

	n, err := AutoCreateDueOrders(ctx, database, nowUTC().Add(time.Hour), 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAutoCreateDueOrdersIgnoresStaleOpenOrders(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	runAt := planNow.AddDate(0, 0, 3)

	// An open Planned order older than the window does not count.
	stale := runAt.Add(-25 * time.Hour)
	_, err := database.Exec(
		`INSERT INTO work_orders (equipment, equipment_node_id, work_type, priority, status, created_at, updated_at)
		 VALUES ('Gearbox', 'gear', 'Planned', 'low', 'open', ?, ?)`, stale, stale)
	require.NoError(t, err)

	// An Emergency order does not count either.
	recent := runAt.Add(-time.Hour)
	_, err = database.Exec(
		`INSERT INTO work_orders (equipment, equipment_node_id, work_type, priority, status, created_at, updated_at)
		 VALUES ('Gearbox', 'gear', 'Emergency', 'high', 'in_progress', ?, ?)`, recent, recent)
	require.NoError(t, err)

	n, err := AutoCreateDueOrders(ctx, database, runAt, 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAutoCreateDueOrdersRespectsManualPlannedOrder(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	mustCreatePlan(t, database, "gear", model.FrequencyDays, 1, planNow)
	runAt := planNow.AddDate(0, 0, 3)

	recent := runAt.Add(-2 * time.Hour)
	_, err := database.Exec(
		`INSERT INTO work_orders (equipment, equipment_node_id, work_type, priority, status, created_at, updated_at)
		 VALUES ('Gearbox', 'gear', 'Planned', 'low', 'in_progress', ?, ?)`, recent, recent)
	require.NoError(t, err)

	n, err := AutoCreateDueOrders(ctx, database, runAt, 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
