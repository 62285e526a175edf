package quotations

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
	// ErrInvalidTransition rejects a disallowed status change.
	ErrInvalidTransition = errors.New("quotations: invalid status transition")
	// ErrAccepted blocks deleting an accepted quotation.
	ErrAccepted = errors.New("quotations: accepted quotations cannot be deleted")
)

// Service wraps the quotation workflow.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	validate     *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, customerRepo customers.Repository) *Service {
	return &Service{repo: repo, customerRepo: customerRepo, validate: validator.New()}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create opens a Draft quotation, with or without initial lines; an
// item-less draft starts at total 0. The document number is reserved
// in the same transaction that inserts the header, so an aborted
// create never leaves a visible gap.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Quotation, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate quotation: %w", err)
	}
	if _, err := s.customerRepo.Get(ctx, input.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	quoteDate := input.QuoteDate
	if quoteDate.IsZero() {
		quoteDate = time.Now()
	}

	var quotationID int64
	err := shared.RetryOnDuplicate(func() error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			number, err := tx.NextNumber(ctx)
			if err != nil {
				return err
			}
			id, err := tx.Insert(ctx, Quotation{
				Number:     number,
				CustomerID: input.CustomerID,
				QuoteDate:  quoteDate,
				Status:     StatusDraft,
				Notes:      input.Notes,
			})
			if err != nil {
				return fmt.Errorf("insert quotation: %w", err)
			}
			quotationID = id

			for _, line := range input.Items {
				if _, err := tx.InsertItem(ctx, QuotationItem{
					QuotationID: quotationID,
					ProductID:   &line.ProductID,
					Quantity:    line.Quantity,
					UnitPrice:   line.UnitPrice,
				}); err != nil {
					return fmt.Errorf("insert quotation item: %w", err)
				}
			}
			return tx.RecalcTotal(ctx, quotationID)
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quotationID)
}

// AddItem appends a line and refreshes the total in the same
// transaction. Items may be edited in any status; an invoice created
// from the quotation keeps its own snapshot of the lines, so later
// edits never reach it.
func (s *Service) AddItem(ctx context.Context, quotationID int64, item ItemInput) (*Quotation, error) {
	if err := s.validate.Struct(item); err != nil {
		return nil, fmt.Errorf("validate quotation item: %w", err)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, quotationID); err != nil {
			return err
		}
		if _, err := tx.InsertItem(ctx, QuotationItem{
			QuotationID: quotationID,
			ProductID:   &item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}); err != nil {
			return fmt.Errorf("insert quotation item: %w", err)
		}
		return tx.RecalcTotal(ctx, quotationID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quotationID)
}

// RemoveItem deletes a line and refreshes the total in the same
// transaction.
func (s *Service) RemoveItem(ctx context.Context, quotationID, itemID int64) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, quotationID); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, quotationID, itemID); err != nil {
			return err
		}
		return tx.RecalcTotal(ctx, quotationID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quotationID)
}

// SetStatus moves the quotation along its lifecycle.
func (s *Service) SetStatus(ctx context.Context, quotationID int64, status QuotationStatus) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if !CanTransition(q.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, q.Status, status)
		}
		return tx.SetStatus(ctx, quotationID, status)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quotationID)
}

// Delete removes a quotation unless it has been accepted.
func (s *Service) Delete(ctx context.Context, quotationID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if q.Status == StatusAccepted {
			return ErrAccepted
		}
		return tx.Delete(ctx, quotationID)
	})
}
