package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgx used by TotalRecalc.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// LineTotal returns the monetary value of one document line.
func LineTotal(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// TotalRecalc recomputes a parent document's persisted total from its
// line items. Every item mutation across purchase orders, quotations and
// invoices goes through this one routine, inside the same transaction as
// the mutation itself, so a parent total can never drift from its lines.
type TotalRecalc struct {
	Table       string
	ItemTable   string
	FKColumn    string
	PriceColumn string
}

// Apply refreshes the parent's total_amount.
func (t TotalRecalc) Apply(ctx context.Context, ex Execer, parentID int64) error {
	query := fmt.Sprintf(`
		UPDATE %s SET total_amount = (
			SELECT COALESCE(SUM(quantity * %s), 0)
			FROM %s WHERE %s = $1
		) WHERE id = $1
	`, t.Table, t.PriceColumn, t.ItemTable, t.FKColumn)
	if _, err := ex.Exec(ctx, query, parentID); err != nil {
		return fmt.Errorf("recalc %s total: %w", t.Table, err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique
// constraint failure, used to retry document number collisions.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// constraint failure, used to surface friendly in-use errors on delete.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// RetryOnDuplicate runs fn, retrying exactly once when it fails with a
// unique violation. Numbers come from an atomic counter, so a collision
// only happens after a manual insert; one retry allocates the next free
// number.
func RetryOnDuplicate(fn func() error) error {
	err := fn()
	if err != nil && IsUniqueViolation(err) {
		return fn()
	}
	return err
}
