package hr

import "time"

// Employee is a staff member on the payroll register.
type Employee struct {
	ID         int64
	FirstName  string
	LastName   string
	Role       string
	Email      *string
	Phone      *string
	DateJoined time.Time
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName joins the employee's names for display.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// ListRequest filters the employee register.
type ListRequest struct {
	Search   *string
	IsActive *bool
	Limit    int
	Offset   int
}

// CreateInput carries validated fields for a new employee.
type CreateInput struct {
	FirstName  string  `validate:"required,max=100"`
	LastName   string  `validate:"required,max=100"`
	Role       string  `validate:"required,max=100"`
	Email      *string `validate:"omitempty,email"`
	Phone      *string
	DateJoined time.Time
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	FirstName *string `validate:"omitempty,max=100"`
	LastName  *string `validate:"omitempty,max=100"`
	Role      *string `validate:"omitempty,max=100"`
	Email     *string `validate:"omitempty,email"`
	Phone     *string
	IsActive  *bool
}
