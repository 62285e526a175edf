package shared

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 300.0, LineTotal(2, 150))
	assert.Equal(t, 0.0, LineTotal(0, 99.99))
	assert.InDelta(t, 269.97, LineTotal(3, 89.99), 0.001)
}

func TestSequenceFormat(t *testing.T) {
	assert.Equal(t, "Q-0001", QuotationNumbers.Format(1))
	assert.Equal(t, "INV-0042", InvoiceNumbers.Format(42))
	assert.Equal(t, "RC-12345", ReceiptNumbers.Format(12345))
}

type captureExecer struct {
	sql  string
	args []any
}

func (c *captureExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, nil
}

func TestTotalRecalcQuery(t *testing.T) {
	recalc := TotalRecalc{
		Table:       "invoices",
		ItemTable:   "invoice_items",
		FKColumn:    "invoice_id",
		PriceColumn: "unit_price",
	}
	ex := &captureExecer{}
	require.NoError(t, recalc.Apply(context.Background(), ex, 7))

	assert.Contains(t, ex.sql, "UPDATE invoices SET total_amount")
	assert.Contains(t, ex.sql, "SUM(quantity * unit_price)")
	assert.Contains(t, ex.sql, "FROM invoice_items WHERE invoice_id = $1")
	assert.Equal(t, []any{int64(7)}, ex.args)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(context.Canceled))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(nil))
}
