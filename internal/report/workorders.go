// Package report renders spreadsheet exports.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/toir/internal/model"
)

const workOrderSheet = "Work orders"

var workOrderHeaders = []string{
	"ID", "Equipment", "Location", "Type", "Priority", "Status", "Description", "Assigned to", "Created (UTC)",
}

var workOrderWidths = []float64{8, 32, 20, 12, 10, 12, 48, 24, 18}

// WorkOrders writes orders as an XLSX workbook with one row per order.
// assignees maps user IDs to display names; unknown IDs are written as is.
func WorkOrders(w io.Writer, orders []model.WorkOrder, assignees map[int64]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workOrderSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	header := make([]any, len(workOrderHeaders))
	for i, h := range workOrderHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(workOrderSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(workOrderHeaders), 1)
	if err := f.SetCellStyle(workOrderSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, wo := range orders {
		assignee := ""
		if wo.AssignedTo != nil {
			assignee = assignees[*wo.AssignedTo]
			if assignee == "" {
				assignee = fmt.Sprint(*wo.AssignedTo)
			}
		}
		row := []any{
			wo.ID, wo.Equipment, wo.Location, wo.WorkType, wo.Priority, wo.Status, wo.Description,
			assignee, wo.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(workOrderSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, width := range workOrderWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(workOrderSheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	end, _ := excelize.CoordinatesToCellName(len(workOrderHeaders), len(orders)+1)
	if err := f.AutoFilter(workOrderSheet, "A1:"+end, nil); err != nil {
		return fmt.Errorf("adding filter: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
