package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

var (
	ErrInvalidAnimal = errors.New("inventory: unknown animal type")
	ErrInvalidCut    = errors.New("inventory: unknown meat cut")
	// ErrInUse blocks deleting a product still referenced by an open
	// purchase order. Quotation and invoice lines keep their price and
	// drop the reference instead, so those never block a delete.
	ErrInUse = errors.New("inventory: product is referenced by purchase orders")
)

// Service wraps product business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// LowStock returns the products at or below the threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, threshold, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.LowStock(ctx, threshold, limit)
}

// Create registers a product. Each product gets a fresh UUID code and
// stock defaults to a single carcass when not supplied.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	if !ValidAnimalType(input.Animal) {
		return nil, ErrInvalidAnimal
	}
	if !ValidMeatCut(input.Cut) {
		return nil, ErrInvalidCut
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate product: %w", err)
	}

	stock := 1
	if input.Stock != nil {
		stock = *input.Stock
	}

	id, err := s.repo.Create(ctx, Product{
		Code:         uuid.NewString(),
		Animal:       input.Animal,
		Cut:          input.Cut,
		WeightKG:     input.WeightKG,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
		Stock:        stock,
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Product, error) {
	if input.Animal != nil && !ValidAnimalType(*input.Animal) {
		return nil, ErrInvalidAnimal
	}
	if input.Cut != nil && !ValidMeatCut(*input.Cut) {
		return nil, ErrInvalidCut
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate product: %w", err)
	}

	updates := make(map[string]any)
	if input.Animal != nil {
		updates["animal_type"] = *input.Animal
	}
	if input.Cut != nil {
		updates["meat_cut"] = *input.Cut
	}
	if input.WeightKG != nil {
		updates["weight_kg"] = *input.WeightKG
	}
	if input.CostPrice != nil {
		updates["cost_price"] = *input.CostPrice
	}
	if input.SellingPrice != nil {
		updates["selling_price"] = *input.SellingPrice
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if shared.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	return nil
}

// Label assembles the printable label for a product.
func (s *Service) Label(ctx context.Context, id int64) (*LabelFields, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	label := product.Label(time.Now())
	return &label, nil
}
