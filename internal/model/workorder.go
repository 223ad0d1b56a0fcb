package model

import "time"

// Work order statuses, in lifecycle order.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Work types.
const (
	WorkTypeEmergency = "Emergency"
	WorkTypePlanned   = "Planned"
)

// Priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatus reports whether s is a known work order status.
func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusDone
}

// ValidWorkType reports whether t is a known work type.
func ValidWorkType(t string) bool {
	return t == WorkTypeEmergency || t == WorkTypePlanned
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// NextStatus returns the status that follows current, or "" when current is
// terminal or unknown.
func NextStatus(current string) string {
	switch current {
	case StatusOpen:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	}
	return ""
}

// CanTransition reports whether a work order may move from one status to
// another. Staying in the same status is allowed; going back is not.
func CanTransition(from, to string) bool {
	if !ValidStatus(to) {
		return false
	}
	return from == to || NextStatus(from) == to
}

// WorkOrder is a unit of maintenance work.
type WorkOrder struct {
	ID              int64     `json:"id"`
	Equipment       string    `json:"equipment"`
	EquipmentNodeID *string   `json:"equipment_node_id,omitempty"`
	Location        string    `json:"location,omitempty"`
	WorkType        string    `json:"work_type"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	PlanID          *int64    `json:"plan_id,omitempty"`
	CreatedBy       *int64    `json:"created_by,omitempty"`
	AssignedTo      *int64    `json:"assigned_to"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VisibleTo reports whether a user with the given id and role may read or
// modify the order. Technicians only see orders assigned to them.
func (wo *WorkOrder) VisibleTo(userID int64, role string) bool {
	if RoleAtLeast(role, RoleManager) {
		return true
	}
	return wo.AssignedTo != nil && *wo.AssignedTo == userID
}

// WorkOrderInput is the payload for creating a work order.
type WorkOrderInput struct {
	Equipment       string  `json:"equipment"`
	EquipmentNodeID *string `json:"equipment_node_id"`
	Location        string  `json:"location"`
	WorkType        string  `json:"work_type"`
	Priority        string  `json:"priority"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	AssignedTo      *int64  `json:"assigned_to"`
}

// Validate checks required fields and enumerations. New orders always start
// open.
func (in *WorkOrderInput) Validate() error {
	if in.Equipment == "" || in.WorkType == "" || in.Priority == "" {
		return Invalidf("equipment, work_type and priority are required")
	}
	if !ValidWorkType(in.WorkType) {
		return Invalidf("work_type must be 'Emergency' or 'Planned'")
	}
	if !ValidPriority(in.Priority) {
		return Invalidf("priority must be 'low', 'medium' or 'high'")
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if in.Status != StatusOpen {
		return Invalidf("new work orders must be open")
	}
	return nil
}

// WorkOrderPatch is a partial update of a work order.
type WorkOrderPatch struct {
	Equipment   *string `json:"equipment"`
	Location    *string `json:"location"`
	WorkType    *string `json:"work_type"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
	AssignedTo  *int64  `json:"assigned_to"`
}

// Apply validates the patch against wo and applies it.
func (patch *WorkOrderPatch) Apply(wo *WorkOrder) error {
	if patch.WorkType != nil && !ValidWorkType(*patch.WorkType) {
		return Invalidf("work_type must be 'Emergency' or 'Planned'")
	}
	if patch.Priority != nil && !ValidPriority(*patch.Priority) {
		return Invalidf("priority must be 'low', 'medium' or 'high'")
	}
	if patch.Status != nil && !CanTransition(wo.Status, *patch.Status) {
		return Invalidf("cannot change status from %q to %q", wo.Status, *patch.Status)
	}

	if patch.Equipment != nil {
		wo.Equipment = *patch.Equipment
	}
	if patch.Location != nil {
		wo.Location = *patch.Location
	}
	if patch.WorkType != nil {
		wo.WorkType = *patch.WorkType
	}
	if patch.Priority != nil {
		wo.Priority = *patch.Priority
	}
	if patch.Status != nil {
		wo.Status = *patch.Status
	}
	if patch.Description != nil {
		wo.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		wo.AssignedTo = patch.AssignedTo
	}
	return nil
}

// WorkOrderStats summarizes work orders by status.
type WorkOrderStats struct {
	Total       int `json:"total"`
	Open        int `json:"open"`
	InProgress  int `json:"in_progress"`
	Done        int `json:"done"`
	Emergencies int `json:"emergencies"`
}
