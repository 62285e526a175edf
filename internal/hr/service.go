package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Service wraps the employee register rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Employee, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// Create registers an employee. A blank joining date defaults to today
// and new staff start active.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Employee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate employee: %w", err)
	}
	joined := input.DateJoined
	if joined.IsZero() {
		joined = time.Now().Truncate(24 * time.Hour)
	}
	id, err := s.repo.Create(ctx, Employee{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Role:       input.Role,
		Email:      input.Email,
		Phone:      input.Phone,
		DateJoined: joined,
		IsActive:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Employee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate employee: %w", err)
	}
	updates := make(map[string]any)
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update employee: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

// Deactivate marks an employee as no longer active without removing
// their history.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Update(ctx, id, map[string]any{"is_active": false})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
