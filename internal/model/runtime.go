package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquipmentRuntime is one meter reading of a piece of equipment.
type EquipmentRuntime struct {
	ID              int64            `json:"id"`
	EquipmentNodeID string           `json:"equipment_node_id"`
	RecordedAt      time.Time        `json:"recorded_at"`
	RuntimeHours    *decimal.Decimal `json:"runtime_hours"`
	MileageKm       *decimal.Decimal `json:"mileage_km"`
	EngineHours     *decimal.Decimal `json:"engine_hours"`
	RecordedBy      *int64           `json:"recorded_by,omitempty"`
	Notes           string           `json:"notes,omitempty"`

	RecordedByName string `json:"full_name,omitempty"`
}

// EquipmentRuntimeInput is the payload for recording a meter reading.
type EquipmentRuntimeInput struct {
	EquipmentNodeID string           `json:"equipment_node_id"`
	RuntimeHours    *decimal.Decimal `json:"runtime_hours"`
	MileageKm       *decimal.Decimal `json:"mileage_km"`
	EngineHours     *decimal.Decimal `json:"engine_hours"`
	Notes           string           `json:"notes"`
}

// Validate requires the equipment and at least one non-negative reading.
func (in *EquipmentRuntimeInput) Validate() error {
	if in.EquipmentNodeID == "" {
		return Invalidf("equipment_node_id is required")
	}
	readings := []*decimal.Decimal{in.RuntimeHours, in.MileageKm, in.EngineHours}
	seen := false
	for _, v := range readings {
		if v == nil {
			continue
		}
		if v.IsNegative() {
			return Invalidf("readings must not be negative")
		}
		seen = true
	}
	if !seen {
		return Invalidf("one of runtime_hours, mileage_km or engine_hours is required")
	}
	return nil
}
