package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/toir/internal/model"
)

func TestWorkOrders(t *testing.T) {
	tech, stranger := int64(7), int64(9)
	created := time.Date(2025, 4, 2, 13, 45, 0, 0, time.UTC)
	orders := []model.WorkOrder{
		{
			ID: 2, Equipment: "Gearbox", Location: "Shop #1", WorkType: model.WorkTypeEmergency,
			Priority: model.PriorityHigh, Status: model.StatusOpen, Description: "oil leak",
			AssignedTo: &tech, CreatedAt: created,
		},
		{
			ID: 1, Equipment: "Bearing", WorkType: model.WorkTypePlanned,
			Priority: model.PriorityMedium, Status: model.StatusDone, AssignedTo: &stranger, CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WorkOrders(&buf, orders, map[int64]string{tech: "Ivanov I."}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{workOrderSheet}, f.GetSheetList())

	rows, err := f.GetRows(workOrderSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, workOrderHeaders, rows[0])
	assert.Equal(t, []string{
		"2", "Gearbox", "Shop #1", "Emergency", "high", "open", "oil leak", "Ivanov I.", "2025-04-02 13:45",
	}, rows[1])
	assert.Equal(t, "9", rows[2][7], "unknown assignee falls back to the id")
}

func TestWorkOrdersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WorkOrders(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workOrderSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
