package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparePart is a catalogued spare part.
type SparePart struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Manufacturer  string          `json:"manufacturer,omitempty"`
	UnitOfMeasure string          `json:"unit_of_measure,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Supplier      string          `json:"supplier,omitempty"`
	Category      string          `json:"category,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SparePartInput is the payload for creating or replacing a spare part.
type SparePartInput struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Manufacturer  string          `json:"manufacturer"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Supplier      string          `json:"supplier"`
	Category      string          `json:"category"`
}

// Validate checks required fields.
func (in *SparePartInput) Validate() error {
	if in.Code == "" || in.Name == "" {
		return Invalidf("code and name are required")
	}
	if in.UnitPrice.IsNegative() {
		return Invalidf("unit_price must not be negative")
	}
	return nil
}

// SparePartStock is the stock level of one spare part.
type SparePartStock struct {
	ID               int64     `json:"id"`
	SparePartID      int64     `json:"spare_part_id"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	QuantityReserved int       `json:"quantity_reserved"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Joined fields.
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Available is the quantity that can still be reserved.
func (s *SparePartStock) Available() int {
	return s.QuantityOnHand - s.QuantityReserved
}

// SparePartUsage records parts issued against a work order.
type SparePartUsage struct {
	ID           int64           `json:"id"`
	WorkOrderID  int64           `json:"work_order_id"`
	SparePartID  int64           `json:"spare_part_id"`
	QuantityUsed int             `json:"quantity_used"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	IssuedBy     *int64          `json:"issued_by,omitempty"`
	IssuedAt     time.Time       `json:"issued_at"`
	Notes        string          `json:"notes,omitempty"`

	// Joined fields (not always populated).
	Code          string `json:"code,omitempty"`
	Name          string `json:"name,omitempty"`
	UnitOfMeasure string `json:"unit_of_measure,omitempty"`
	IssuedByName  string `json:"full_name,omitempty"`
}

// Total is the cost of the issued quantity.
func (u *SparePartUsage) Total() decimal.Decimal {
	return u.UnitPrice.Mul(decimal.NewFromInt(int64(u.QuantityUsed)))
}

// SparePartUsageInput is the payload for issuing spare parts.
type SparePartUsageInput struct {
	WorkOrderID  int64            `json:"work_order_id"`
	SparePartID  int64            `json:"spare_part_id"`
	QuantityUsed int              `json:"quantity_used"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Notes        string           `json:"notes"`
}

// Validate checks required fields.
func (in *SparePartUsageInput) Validate() error {
	if in.WorkOrderID <= 0 || in.SparePartID <= 0 || in.QuantityUsed <= 0 {
		return Invalidf("work_order_id, spare_part_id and a positive quantity_used are required")
	}
	return nil
}

// Material is a consumable tracked by cost only.
type Material struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	UnitOfMeasure string          `json:"unit_of_measure,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Supplier      string          `json:"supplier,omitempty"`
	Category      string          `json:"category,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MaterialInput is the payload for creating or replacing a material.
type MaterialInput struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Supplier      string          `json:"supplier"`
	Category      string          `json:"category"`
}

// Validate checks required fields.
func (in *MaterialInput) Validate() error {
	if in.Code == "" || in.Name == "" {
		return Invalidf("code and name are required")
	}
	if in.UnitPrice.IsNegative() {
		return Invalidf("unit_price must not be negative")
	}
	return nil
}

// MaterialUsage records materials issued against a work order. Quantities are
// fractional (litres, metres).
type MaterialUsage struct {
	ID           int64           `json:"id"`
	WorkOrderID  int64           `json:"work_order_id"`
	MaterialID   int64           `json:"material_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	IssuedBy     *int64          `json:"issued_by,omitempty"`
	IssuedAt     time.Time       `json:"issued_at"`
	Notes        string          `json:"notes,omitempty"`

	Code          string `json:"code,omitempty"`
	Name          string `json:"name,omitempty"`
	UnitOfMeasure string `json:"unit_of_measure,omitempty"`
	IssuedByName  string `json:"full_name,omitempty"`
}

// MaterialUsageInput is the payload for issuing materials.
type MaterialUsageInput struct {
	WorkOrderID  int64            `json:"work_order_id"`
	MaterialID   int64            `json:"material_id"`
	QuantityUsed decimal.Decimal  `json:"quantity_used"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Notes        string           `json:"notes"`
}

// Validate checks required fields.
func (in *MaterialUsageInput) Validate() error {
	if in.WorkOrderID <= 0 || in.MaterialID <= 0 || !in.QuantityUsed.IsPositive() {
		return Invalidf("work_order_id, material_id and a positive quantity_used are required")
	}
	return nil
}
