package customers

import "time"

// Customer is a buyer on quotations and invoices.
type Customer struct {
	ID        int64
	Name      string
	Phone     *string
	Email     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListRequest filters the customer listing.
type ListRequest struct {
	Search *string
	Limit  int
	Offset int
}

// CreateInput carries validated fields for a new customer.
type CreateInput struct {
	Name    string `validate:"required,max=200"`
	Phone   *string
	Email   *string `validate:"omitempty,email"`
	Address *string
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	Name    *string `validate:"omitempty,max=200"`
	Phone   *string
	Email   *string `validate:"omitempty,email"`
	Address *string
}
