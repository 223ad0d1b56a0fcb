package model

import "time"

// MaintenanceType is reference data describing a kind of recurring service.
type MaintenanceType struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	FrequencyType  string    `json:"frequency_type"`
	FrequencyValue int       `json:"frequency_value"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// MaintenanceTypeInput is the payload for creating or replacing a
// maintenance type.
type MaintenanceTypeInput struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	FrequencyType  string `json:"frequency_type"`
	FrequencyValue int    `json:"frequency_value"`
	Description    string `json:"description"`
	IsActive       *bool  `json:"is_active"`
}

// Validate checks required fields and the frequency label.
func (in *MaintenanceTypeInput) Validate() error {
	if in.Code == "" || in.Name == "" || in.FrequencyType == "" {
		return Invalidf("code, name and frequency_type are required")
	}
	if !ValidFrequencyLabel(in.FrequencyType) {
		return Invalidf("unknown frequency_type %q", in.FrequencyType)
	}
	if in.FrequencyValue <= 0 {
		return Invalidf("frequency_value must be positive")
	}
	return nil
}

// Maintenance record statuses.
const (
	RecordCompleted = "completed"
	RecordSkipped   = "skipped"
)

// MaintenanceRecord is one logged maintenance event.
type MaintenanceRecord struct {
	ID                int64     `json:"id"`
	EquipmentNodeID   string    `json:"equipment_node_id"`
	PlanID            *int64    `json:"plan_id,omitempty"`
	MaintenanceTypeID *int64    `json:"maintenance_type_id,omitempty"`
	WorkOrderID       *int64    `json:"work_order_id,omitempty"`
	PerformedAt       time.Time `json:"performed_at"`
	PerformedBy       *int64    `json:"performed_by,omitempty"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	RuntimeAtService  *int64    `json:"runtime_at_service,omitempty"`

	// Joined fields.
	EquipmentName   string `json:"equipment_name,omitempty"`
	PerformedByName string `json:"performed_by_name,omitempty"`
}

// MaintenanceRecordInput is the payload for logging maintenance.
type MaintenanceRecordInput struct {
	EquipmentNodeID   string     `json:"equipment_node_id"`
	PlanID            *int64     `json:"plan_id"`
	MaintenanceTypeID *int64     `json:"maintenance_type_id"`
	WorkOrderID       *int64     `json:"work_order_id"`
	PerformedAt       *Timestamp `json:"performed_at"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes"`
	RuntimeAtService  *int64     `json:"runtime_at_service"`
}

// Validate checks required fields and fills the default status.
func (in *MaintenanceRecordInput) Validate() error {
	if in.EquipmentNodeID == "" {
		return Invalidf("equipment_node_id is required")
	}
	if in.Status == "" {
		in.Status = RecordCompleted
	}
	if in.Status != RecordCompleted && in.Status != RecordSkipped {
		return Invalidf("status must be 'completed' or 'skipped'")
	}
	return nil
}
