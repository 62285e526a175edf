package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/suppliers"
)

var (
	// ErrAlreadyReceived signals the one-way receive transition has
	// already happened. Callers treat it as information, not failure.
	ErrAlreadyReceived = errors.New("purchasing: order already received")
	// ErrOrderLocked rejects item edits on a received order.
	ErrOrderLocked = errors.New("purchasing: received orders cannot be modified")
)

// Service wraps the purchase order workflow.
type Service struct {
	repo         Repository
	supplierRepo suppliers.Repository
	validate     *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, supplierRepo suppliers.Repository) *Service {
	return &Service{repo: repo, supplierRepo: supplierRepo, validate: validator.New()}
}

func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]PurchaseOrder, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create opens a Pending order, with or without initial lines. An
// item-less order starts at total 0 and grows through AddItem. The
// header, any lines and the recomputed total are written in one
// transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*PurchaseOrder, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate order: %w", err)
	}
	if _, err := s.supplierRepo.Get(ctx, input.SupplierID); err != nil {
		return nil, fmt.Errorf("verify supplier: %w", err)
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, PurchaseOrder{
			SupplierID: input.SupplierID,
			Status:     StatusPending,
			OrderDate:  orderDate,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		for _, line := range input.Items {
			if _, err := tx.InsertItem(ctx, PurchaseOrderItem{
				PurchaseOrderID: orderID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				UnitCost:        line.UnitCost,
			}); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return tx.RecalcTotal(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// AddItem appends a line to a pending order and refreshes the total in
// the same transaction.
func (s *Service) AddItem(ctx context.Context, orderID int64, item ItemInput) (*PurchaseOrder, error) {
	if err := s.validate.Struct(item); err != nil {
		return nil, fmt.Errorf("validate order item: %w", err)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return ErrOrderLocked
		}
		if _, err := tx.InsertItem(ctx, PurchaseOrderItem{
			PurchaseOrderID: orderID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitCost,
		}); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		return tx.RecalcTotal(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// RemoveItem deletes a line from a pending order and refreshes the
// total in the same transaction.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) (*PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return ErrOrderLocked
		}
		if err := tx.DeleteItem(ctx, orderID, itemID); err != nil {
			return err
		}
		return tx.RecalcTotal(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// Receive marks the order Received and increments stock for every line.
// The order row is locked first, so a second concurrent receive sees
// the Received status and backs off without touching stock again.
func (s *Service) Receive(ctx context.Context, orderID int64) (*PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return ErrAlreadyReceived
		}

		items, err := tx.ListItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		for _, item := range items {
			if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.SetReceived(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// Delete removes a pending order with its lines. Received orders stay
// on record.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return ErrOrderLocked
		}
		return tx.Delete(ctx, orderID)
	})
}
