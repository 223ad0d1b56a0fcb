package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation statuses.
const (
	OperationPending    = "pending"
	OperationInProgress = "in_progress"
	OperationCompleted  = "completed"
)

// ValidOperationStatus reports whether s is a known operation status.
func ValidOperationStatus(s string) bool {
	return s == OperationPending || s == OperationInProgress || s == OperationCompleted
}

// WorkOrderOperation is one numbered step of a work order.
type WorkOrderOperation struct {
	ID              int64            `json:"id"`
	WorkOrderID     int64            `json:"work_order_id"`
	OperationNumber int              `json:"operation_number"`
	Description     string           `json:"description"`
	EstimatedHours  *decimal.Decimal `json:"estimated_hours"`
	ActualHours     *decimal.Decimal `json:"actual_hours"`
	Status          string           `json:"status"`
	StartTime       *time.Time       `json:"start_time"`
	EndTime         *time.Time       `json:"end_time"`
	AssignedTo      *int64           `json:"assigned_to,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	AssignedToName string `json:"full_name,omitempty"`
}

// OperationInput is the payload for adding an operation to a work order.
type OperationInput struct {
	WorkOrderID     int64            `json:"work_order_id"`
	OperationNumber int              `json:"operation_number"`
	Description     string           `json:"description"`
	EstimatedHours  *decimal.Decimal `json:"estimated_hours"`
	AssignedTo      *int64           `json:"assigned_to"`
	Notes           string           `json:"notes"`
}

// Validate checks required fields.
func (in *OperationInput) Validate() error {
	if in.WorkOrderID <= 0 || in.OperationNumber <= 0 || in.Description == "" {
		return Invalidf("work_order_id, a positive operation_number and description are required")
	}
	if in.EstimatedHours != nil && in.EstimatedHours.IsNegative() {
		return Invalidf("estimated_hours must not be negative")
	}
	return nil
}

// OperationPatch records progress on an operation.
type OperationPatch struct {
	Status      *string          `json:"status"`
	ActualHours *decimal.Decimal `json:"actual_hours"`
	StartTime   *Timestamp       `json:"start_time"`
	EndTime     *Timestamp       `json:"end_time"`
}

// Apply validates the patch against op and applies it.
func (patch *OperationPatch) Apply(op *WorkOrderOperation) error {
	if patch.Status != nil && !ValidOperationStatus(*patch.Status) {
		return Invalidf("status must be 'pending', 'in_progress' or 'completed'")
	}
	if patch.ActualHours != nil && patch.ActualHours.IsNegative() {
		return Invalidf("actual_hours must not be negative")
	}

	if patch.Status != nil {
		op.Status = *patch.Status
	}
	if patch.ActualHours != nil {
		op.ActualHours = patch.ActualHours
	}
	if patch.StartTime != nil {
		op.StartTime = &patch.StartTime.Time
	}
	if patch.EndTime != nil {
		op.EndTime = &patch.EndTime.Time
	}
	if op.StartTime != nil && op.EndTime != nil && op.EndTime.Before(*op.StartTime) {
		return Invalidf("end_time must not be before start_time")
	}
	return nil
}

// WorkType is an entry of the work type catalogue.
type WorkType struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}
