package invoices

import (
	"time"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

// InvoiceStatus is derived from the receipts recorded against the
// invoice, except Cancelled which is set explicitly and sticks.
type InvoiceStatus string

const (
	StatusUnpaid        InvoiceStatus = "Unpaid"
	StatusPartiallyPaid InvoiceStatus = "Partially Paid"
	StatusPaid          InvoiceStatus = "Paid"
	StatusCancelled     InvoiceStatus = "Cancelled"
)

// DeriveStatus computes the payment status from the invoice total and
// the sum of its receipts.
func DeriveStatus(total, paid float64) InvoiceStatus {
	switch {
	case paid <= 0:
		return StatusUnpaid
	case paid < total:
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// PaymentMethod is how a receipt was settled.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodCard         PaymentMethod = "Card"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodMobileMoney  PaymentMethod = "Mobile Money"
)

// PaymentMethods lists the accepted methods in form order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodBankTransfer, MethodMobileMoney}

// ValidPaymentMethod reports whether m is an accepted method.
func ValidPaymentMethod(m PaymentMethod) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// Invoice is a bill issued to a customer.
type Invoice struct {
	ID           int64
	Number       string
	CustomerID   int64
	CustomerName string
	QuotationID  *int64
	InvoiceDate  time.Time
	DueDate      *time.Time
	Status       InvoiceStatus
	TotalAmount  float64
	PaidAmount   float64
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []InvoiceItem
	Receipts     []Receipt
}

// Balance is the amount still owed.
func (inv Invoice) Balance() float64 {
	return inv.TotalAmount - inv.PaidAmount
}

// InvoiceItem is a single product line on an invoice. ProductID is nil
// once the product has been deleted; the line and its billed price
// survive the deletion.
type InvoiceItem struct {
	ID          int64
	InvoiceID   int64
	ProductID   *int64
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// LineTotal is the monetary value of the line.
func (i InvoiceItem) LineTotal() float64 {
	return shared.LineTotal(i.Quantity, i.UnitPrice)
}

// Receipt records one payment against an invoice.
type Receipt struct {
	ID         int64
	Number     string
	InvoiceID  int64
	Amount     float64
	Method     PaymentMethod
	ReceivedAt time.Time
	Notes      *string
	CreatedAt  time.Time
}

// ListRequest filters the invoice listing.
type ListRequest struct {
	Status   *InvoiceStatus
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

// CreateInput carries the fields for a new invoice.
type CreateInput struct {
	CustomerID  int64 `validate:"required"`
	InvoiceDate time.Time
	DueDate     *time.Time
	Notes       *string
	Items       []ItemInput `validate:"dive"`
}

// ReceiptInput carries the fields for a new receipt.
type ReceiptInput struct {
	Amount     float64 `validate:"gt=0"`
	Method     PaymentMethod
	ReceivedAt time.Time
	Notes      *string
}

// QuotationSnapshot is the data copied from a quotation when
// converting it into an invoice.
type QuotationSnapshot struct {
	ID         int64
	Number     string
	CustomerID int64
	Status     string
	Notes      *string
	Items      []SnapshotItem
}

// SnapshotItem is one quotation line captured for conversion.
type SnapshotItem struct {
	ProductID *int64
	Quantity  int
	UnitPrice float64
}
