package quotations

import (
	"time"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

// QuotationStatus tracks the quotation lifecycle.
type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "Draft"
	StatusSent     QuotationStatus = "Sent"
	StatusAccepted QuotationStatus = "Accepted"
	StatusRejected QuotationStatus = "Rejected"
)

// Statuses lists the lifecycle states in order.
var Statuses = []QuotationStatus{StatusDraft, StatusSent, StatusAccepted, StatusRejected}

// CanTransition reports whether a quotation may move from its current
// status to the target. A draft must be sent before it can be accepted
// or rejected; Accepted and Rejected are terminal.
func CanTransition(from, to QuotationStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent
	case StatusSent:
		return to == StatusAccepted || to == StatusRejected
	default:
		return false
	}
}

// Quotation is a priced offer to a customer.
type Quotation struct {
	ID           int64
	Number       string
	CustomerID   int64
	CustomerName string
	QuoteDate    time.Time
	Status       QuotationStatus
	TotalAmount  float64
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []QuotationItem
}

// QuotationItem is a single product line on a quotation. ProductID is
// nil once the product has been deleted; the line and its quote-time
// price survive the deletion.
type QuotationItem struct {
	ID          int64
	QuotationID int64
	ProductID   *int64
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// LineTotal is the monetary value of the line.
func (i QuotationItem) LineTotal() float64 {
	return shared.LineTotal(i.Quantity, i.UnitPrice)
}

// ListRequest filters the quotation listing.
type ListRequest struct {
	Status   *QuotationStatus
	Customer *int64
	Limit    int
	Offset   int
}

// ItemInput is one requested line.
type ItemInput struct {
	ProductID int64   `validate:"required"`
	Quantity  int     `validate:"gt=0"`
	UnitPrice float64 `validate:"gte=0"`
}

// CreateInput carries the fields for a new quotation.
type CreateInput struct {
	CustomerID int64 `validate:"required"`
	QuoteDate  time.Time
	Notes      *string
	Items      []ItemInput `validate:"dive"`
}
