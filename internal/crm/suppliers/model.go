package suppliers

import "time"

// Supplier is a livestock or goods vendor on purchase orders.
type Supplier struct {
	ID            int64
	Name          string
	ContactPerson *string
	Phone         *string
	Email         *string
	Address       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListRequest filters the supplier listing.
type ListRequest struct {
	Search *string
	Limit  int
	Offset int
}

// CreateInput carries validated fields for a new supplier.
type CreateInput struct {
	Name          string `validate:"required,max=200"`
	ContactPerson *string
	Phone         *string
	Email         *string `validate:"omitempty,email"`
	Address       *string
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	Name          *string `validate:"omitempty,max=200"`
	ContactPerson *string
	Phone         *string
	Email         *string `validate:"omitempty,email"`
	Address       *string
}
