package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

var (
	// ErrNotEditable rejects item edits once payments exist or the
	// invoice is cancelled.
	ErrNotEditable = errors.New("invoices: only unpaid invoices can be edited")
	// ErrCancelled rejects operations on a cancelled invoice.
	ErrCancelled = errors.New("invoices: invoice is cancelled")
	// ErrInvalidMethod rejects an unknown payment method.
	ErrInvalidMethod = errors.New("invoices: invalid payment method")
	// ErrAlreadyConverted blocks converting the same quotation twice.
	ErrAlreadyConverted = errors.New("invoices: quotation already converted")
	// ErrHasReceipts blocks deleting an invoice that has payments.
	ErrHasReceipts = errors.New("invoices: invoices with receipts cannot be deleted")
)

// Service wraps the invoice and receipt workflow.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	validate     *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, customerRepo customers.Repository) *Service {
	return &Service{repo: repo, customerRepo: customerRepo, validate: validator.New()}
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create opens an Unpaid invoice, with or without initial lines; an
// item-less invoice starts at total 0 and grows through AddItem. The
// document number is reserved in the same transaction that inserts the
// header.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Invoice, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate invoice: %w", err)
	}
	if _, err := s.customerRepo.Get(ctx, input.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	var invoiceID int64
	err := shared.RetryOnDuplicate(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			number, err := tx.NextNumber(ctx)
			if err != nil {
				return err
			}
			id, err := tx.Insert(ctx, Invoice{
				Number:      number,
				CustomerID:  input.CustomerID,
				InvoiceDate: invoiceDate,
				DueDate:     input.DueDate,
				Status:      StatusUnpaid,
				Notes:       input.Notes,
			})
			if err != nil {
				return fmt.Errorf("insert invoice: %w", err)
			}
			invoiceID = id

			for _, line := range input.Items {
				if _, err := tx.InsertItem(ctx, InvoiceItem{
					InvoiceID: invoiceID,
					ProductID: &line.ProductID,
					Quantity:  line.Quantity,
					UnitPrice: line.UnitPrice,
				}); err != nil {
					return fmt.Errorf("insert invoice item: %w", err)
				}
			}
			return tx.RecalcTotal(ctx, invoiceID)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// CreateFromQuotation turns a quotation into an invoice, copying its
// lines as they stand. The quotation row is locked for the duration,
// and a quotation can be converted at most once.
func (s *Service) CreateFromQuotation(ctx context.Context, quotationID int64, dueDate *time.Time) (*Invoice, error) {
	var invoiceID int64
	err := shared.RetryOnDuplicate(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			snap, err := tx.LockQuotation(ctx, quotationID)
			if err != nil {
				return err
			}
			if _, err := tx.FindByQuotation(ctx, quotationID); err == nil {
				return ErrAlreadyConverted
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}

			number, err := tx.NextNumber(ctx)
			if err != nil {
				return err
			}
			id, err := tx.Insert(ctx, Invoice{
				Number:      number,
				CustomerID:  snap.CustomerID,
				QuotationID: &snap.ID,
				InvoiceDate: time.Now(),
				DueDate:     dueDate,
				Status:      StatusUnpaid,
				Notes:       snap.Notes,
			})
			if err != nil {
				return fmt.Errorf("insert invoice: %w", err)
			}
			invoiceID = id

			for _, line := range snap.Items {
				if _, err := tx.InsertItem(ctx, InvoiceItem{
					InvoiceID: invoiceID,
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					UnitPrice: line.UnitPrice,
				}); err != nil {
					return fmt.Errorf("copy quotation item: %w", err)
				}
			}
			return tx.RecalcTotal(ctx, invoiceID)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// AddItem appends a line to an unpaid invoice and refreshes the total
// in the same transaction.
func (s *Service) AddItem(ctx context.Context, invoiceID int64, item ItemInput) (*Invoice, error) {
	if err := s.validate.Struct(item); err != nil {
		return nil, fmt.Errorf("validate invoice item: %w", err)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != StatusUnpaid {
			return ErrNotEditable
		}
		if _, err := tx.InsertItem(ctx, InvoiceItem{
			InvoiceID: invoiceID,
			ProductID: &item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
		return tx.RecalcTotal(ctx, invoiceID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// RemoveItem deletes a line from an unpaid invoice and refreshes the
// total in the same transaction.
func (s *Service) RemoveItem(ctx context.Context, invoiceID, itemID int64) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != StatusUnpaid {
			return ErrNotEditable
		}
		if err := tx.DeleteItem(ctx, invoiceID, itemID); err != nil {
			return err
		}
		return tx.RecalcTotal(ctx, invoiceID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// AddReceipt records a payment and re-derives the invoice status in
// the same transaction.
func (s *Service) AddReceipt(ctx context.Context, invoiceID int64, input ReceiptInput) (*Invoice, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate receipt: %w", err)
	}
	if !ValidPaymentMethod(input.Method) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, input.Method)
	}

	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	err := shared.RetryOnDuplicate(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv, err := tx.GetForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if inv.Status == StatusCancelled {
				return ErrCancelled
			}
			number, err := tx.NextReceiptNumber(ctx)
			if err != nil {
				return err
			}
			if _, err := tx.InsertReceipt(ctx, Receipt{
				Number:     number,
				InvoiceID:  invoiceID,
				Amount:     input.Amount,
				Method:     input.Method,
				ReceivedAt: receivedAt,
				Notes:      input.Notes,
			}); err != nil {
				return fmt.Errorf("insert receipt: %w", err)
			}
			paid, err := tx.SumReceipts(ctx, invoiceID)
			if err != nil {
				return err
			}
			return tx.SetStatus(ctx, invoiceID, DeriveStatus(inv.TotalAmount, paid))
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// DeleteReceipt removes a payment and re-derives the invoice status in
// the same transaction. A cancelled invoice keeps its status.
func (s *Service) DeleteReceipt(ctx context.Context, invoiceID, receiptID int64) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := tx.DeleteReceipt(ctx, invoiceID, receiptID); err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return nil
		}
		paid, err := tx.SumReceipts(ctx, invoiceID)
		if err != nil {
			return err
		}
		return tx.SetStatus(ctx, invoiceID, DeriveStatus(inv.TotalAmount, paid))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// Cancel voids the invoice. The status sticks regardless of later
// receipt changes.
func (s *Service) Cancel(ctx context.Context, invoiceID int64) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusCancelled {
			return ErrCancelled
		}
		return tx.SetStatus(ctx, invoiceID, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, invoiceID)
}

// Delete removes an invoice that has no payments recorded.
func (s *Service) Delete(ctx context.Context, invoiceID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		paid, err := tx.SumReceipts(ctx, invoiceID)
		if err != nil {
			return err
		}
		if paid > 0 {
			return ErrHasReceipts
		}
		return tx.Delete(ctx, invoiceID)
	})
}
