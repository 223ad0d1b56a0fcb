package model

import (
	"time"
)

// Frequency kinds.
const (
	FrequencyHours      = "hours"
	FrequencyDays       = "days"
	FrequencyWeeks      = "weeks"
	FrequencyMonths     = "months"
	FrequencyKilometers = "kilometers"
)

// ValidFrequencyLabel reports whether kind may appear in maintenance type
// reference data. Kilometers is a label only; see NextDue.
func ValidFrequencyLabel(kind string) bool {
	switch kind {
	case FrequencyHours, FrequencyDays, FrequencyWeeks, FrequencyMonths, FrequencyKilometers:
		return true
	}
	return false
}

// NextDue advances ref by value units of kind.
//
// Months use calendar arithmetic with day overflow carried into the following
// month, so 2025-01-31 plus one month is 2025-03-03. Kilometers are usage
// based and have no date computation; they yield ErrUnsupportedFrequency.
func NextDue(ref time.Time, kind string, value int) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, Invalidf("frequency_value must be positive")
	}
	switch kind {
	case FrequencyHours:
		return ref.Add(time.Duration(value) * time.Hour), nil
	case FrequencyDays:
		return ref.AddDate(0, 0, value), nil
	case FrequencyWeeks:
		return ref.AddDate(0, 0, value*7), nil
	case FrequencyMonths:
		return ref.AddDate(0, value, 0), nil
	}
	return time.Time{}, ErrUnsupportedFrequency
}

// MaintenancePlan is a recurring maintenance schedule for one equipment node.
type MaintenancePlan struct {
	ID                  int64      `json:"id"`
	EquipmentNodeID     string     `json:"equipment_node_id"`
	EquipmentName       string     `json:"equipment_name"`
	MaintenanceTypeID   *int64     `json:"maintenance_type_id,omitempty"`
	FrequencyType       string     `json:"frequency_type"`
	FrequencyValue      int        `json:"frequency_value"`
	Description         string     `json:"description,omitempty"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	NextDueDate         time.Time  `json:"next_due_date"`
	IsActive            bool       `json:"is_active"`
	CreatedBy           *int64     `json:"created_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Baseline is the instant the next due date is counted from.
func (p *MaintenancePlan) Baseline() time.Time {
	if p.LastMaintenanceDate != nil {
		return *p.LastMaintenanceDate
	}
	return p.CreatedAt
}

// PlanInput is the payload for creating a maintenance plan.
type PlanInput struct {
	EquipmentNodeID   string `json:"equipment_node_id"`
	EquipmentName     string `json:"equipment_name"`
	MaintenanceTypeID *int64 `json:"maintenance_type_id"`
	FrequencyType     string `json:"frequency_type"`
	FrequencyValue    *int   `json:"frequency_value"`
	Description       string `json:"description"`
}

// Validate checks required fields.
func (in *PlanInput) Validate() error {
	if in.EquipmentNodeID == "" || in.FrequencyType == "" || in.FrequencyValue == nil {
		return Invalidf("equipment_node_id, frequency_type and frequency_value are required")
	}
	if *in.FrequencyValue <= 0 {
		return Invalidf("frequency_value must be positive")
	}
	return nil
}

// PlanPatch is a partial update of a maintenance plan.
type PlanPatch struct {
	EquipmentName       *string    `json:"equipment_name"`
	MaintenanceTypeID   *int64     `json:"maintenance_type_id"`
	FrequencyType       *string    `json:"frequency_type"`
	FrequencyValue      *int       `json:"frequency_value"`
	Description         *string    `json:"description"`
	IsActive            *bool      `json:"is_active"`
	LastMaintenanceDate *Timestamp `json:"last_maintenance_date"`
}

// Apply applies the patch to p and recomputes the next due date whenever the
// schedule inputs changed.
func (patch *PlanPatch) Apply(p *MaintenancePlan) error {
	if patch.EquipmentName != nil {
		p.EquipmentName = *patch.EquipmentName
	}
	if patch.MaintenanceTypeID != nil {
		p.MaintenanceTypeID = patch.MaintenanceTypeID
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}

	reschedule := false
	if patch.FrequencyType != nil && *patch.FrequencyType != p.FrequencyType {
		p.FrequencyType = *patch.FrequencyType
		reschedule = true
	}
	if patch.FrequencyValue != nil && *patch.FrequencyValue != p.FrequencyValue {
		p.FrequencyValue = *patch.FrequencyValue
		reschedule = true
	}
	if patch.LastMaintenanceDate != nil {
		last := patch.LastMaintenanceDate.Time.UTC()
		p.LastMaintenanceDate = &last
		reschedule = true
	}
	if !reschedule {
		return nil
	}

	next, err := NextDue(p.Baseline(), p.FrequencyType, p.FrequencyValue)
	if err != nil {
		return err
	}
	p.NextDueDate = next
	return nil
}
