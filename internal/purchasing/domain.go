package purchasing

import (
	"time"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

// POStatus tracks the purchase order lifecycle. Orders move from
// Pending to Received exactly once and never back.
type POStatus string

const (
	StatusPending  POStatus = "Pending"
	StatusReceived POStatus = "Received"
)

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID           int64
	SupplierID   int64
	SupplierName string
	Status       POStatus
	OrderDate    time.Time
	TotalAmount  float64
	ReceivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []PurchaseOrderItem
}

// PurchaseOrderItem is a single product line on an order.
type PurchaseOrderItem struct {
	ID              int64
	PurchaseOrderID int64
	ProductID       int64
	ProductName     string
	Quantity        int
	UnitCost        float64
}

// LineTotal is the monetary value of the line.
func (i PurchaseOrderItem) LineTotal() float64 {
	return shared.LineTotal(i.Quantity, i.UnitCost)
}

// ListRequest filters the order listing.
type ListRequest struct {
	Status *POStatus
	Limit  int
	Offset int
}

// ItemInput is one requested line on a new order.
type ItemInput struct {
	ProductID int64   `validate:"required"`
	Quantity  int     `validate:"gt=0"`
	UnitCost  float64 `validate:"gte=0"`
}

// CreateInput carries the fields for a new purchase order.
type CreateInput struct {
	SupplierID int64 `validate:"required"`
	OrderDate  time.Time
	Items      []ItemInput `validate:"dive"`
}
