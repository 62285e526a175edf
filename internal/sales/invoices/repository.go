package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kgomo-bms/kgomo-bms/internal/platform/db"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

var (
	ErrNotFound        = errors.New("invoices: not found")
	ErrItemNotFound    = errors.New("invoices: item not found")
	ErrReceiptNotFound = errors.New("invoices: receipt not found")
)

// invoiceTotals recomputes invoices.total_amount from its items.
var invoiceTotals = shared.TotalRecalc{
	Table:       "invoices",
	ItemTable:   "invoice_items",
	FKColumn:    "invoice_id",
	PriceColumn: "unit_price",
}

// Repository defines read access plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, int, error)
}

// TxRepository defines the mutations available inside a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context) (string, error)
	NextReceiptNumber(ctx context.Context) (string, error)
	Insert(ctx context.Context, inv Invoice) (int64, error)
	InsertItem(ctx context.Context, item InvoiceItem) (int64, error)
	DeleteItem(ctx context.Context, invoiceID, itemID int64) error
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
	SetStatus(ctx context.Context, id int64, status InvoiceStatus) error
	RecalcTotal(ctx context.Context, id int64) error
	InsertReceipt(ctx context.Context, rc Receipt) (int64, error)
	DeleteReceipt(ctx context.Context, invoiceID, receiptID int64) error
	SumReceipts(ctx context.Context, invoiceID int64) (float64, error)
	Delete(ctx context.Context, id int64) error

	// Conversion support. The quotation row is locked so two
	// concurrent converts cannot both pass the duplicate check.
	LockQuotation(ctx context.Context, quotationID int64) (*QuotationSnapshot, error)
	FindByQuotation(ctx context.Context, quotationID int64) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

type txRepository struct {
	tx pgx.Tx
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT i.id, i.number, i.customer_id, c.name, i.quotation_id, i.invoice_date,
		       i.due_date, i.status, i.total_amount,
		       COALESCE((SELECT SUM(amount) FROM receipts WHERE invoice_id = i.id), 0),
		       i.notes, i.created_at, i.updated_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1
	`, id).Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.QuotationID, &inv.InvoiceDate,
		&inv.DueDate, &inv.Status, &inv.TotalAmount, &inv.PaidAmount,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT li.id, li.invoice_id, li.product_id,
		       COALESCE(p.animal_type || ' - ' || p.meat_cut, 'Deleted product'),
		       li.quantity, li.unit_price
		FROM invoice_items li
		LEFT JOIN products p ON p.id = li.product_id
		WHERE li.invoice_id = $1
		ORDER BY li.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	receiptRows, err := r.pool.Query(ctx, `
		SELECT id, number, invoice_id, amount, payment_method, received_at, notes, created_at
		FROM receipts
		WHERE invoice_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer receiptRows.Close()
	for receiptRows.Next() {
		var rc Receipt
		if err := receiptRows.Scan(&rc.ID, &rc.Number, &rc.InvoiceID, &rc.Amount, &rc.Method, &rc.ReceivedAt, &rc.Notes, &rc.CreatedAt); err != nil {
			return nil, err
		}
		inv.Receipts = append(inv.Receipts, rc)
	}
	if err := receiptRows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Customer != nil {
		conditions = append(conditions, fmt.Sprintf("i.customer_id = $%d", argPos))
		args = append(args, *req.Customer)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			where += " AND " + conditions[i]
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices i %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.number, i.customer_id, c.name, i.quotation_id, i.invoice_date,
		       i.due_date, i.status, i.total_amount,
		       COALESCE((SELECT SUM(amount) FROM receipts WHERE invoice_id = i.id), 0),
		       i.notes, i.created_at, i.updated_at
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		%s
		ORDER BY i.id DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.QuotationID, &inv.InvoiceDate,
			&inv.DueDate, &inv.Status, &inv.TotalAmount, &inv.PaidAmount,
			&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, inv)
	}
	return result, total, rows.Err()
}

// NextNumber reserves the next invoice number inside the transaction.
func (t *txRepository) NextNumber(ctx context.Context) (string, error) {
	return shared.InvoiceNumbers.Next(ctx, t.tx)
}

// NextReceiptNumber reserves the next receipt number inside the transaction.
func (t *txRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	return shared.ReceiptNumbers.Next(ctx, t.tx)
}

func (t *txRepository) Insert(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoices (number, customer_id, quotation_id, invoice_date, due_date, status, total_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING id
	`, inv.Number, inv.CustomerID, inv.QuotationID, inv.InvoiceDate, inv.DueDate, inv.Status, inv.Notes).Scan(&id)
	return id, err
}

func (t *txRepository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoice_items (invoice_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.InvoiceID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&id)
	return id, err
}

func (t *txRepository) DeleteItem(ctx context.Context, invoiceID, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM invoice_items
		WHERE id = $1 AND invoice_id = $2
	`, itemID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := t.tx.QueryRow(ctx, `
		SELECT id, number, customer_id, quotation_id, invoice_date, due_date, status,
		       total_amount, notes, created_at, updated_at
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.QuotationID, &inv.InvoiceDate, &inv.DueDate, &inv.Status,
		&inv.TotalAmount, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (t *txRepository) SetStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	return err
}

func (t *txRepository) RecalcTotal(ctx context.Context, id int64) error {
	return invoiceTotals.Apply(ctx, t.tx, id)
}

func (t *txRepository) InsertReceipt(ctx context.Context, rc Receipt) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO receipts (number, invoice_id, amount, payment_method, received_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rc.Number, rc.InvoiceID, rc.Amount, rc.Method, rc.ReceivedAt, rc.Notes).Scan(&id)
	return id, err
}

func (t *txRepository) DeleteReceipt(ctx context.Context, invoiceID, receiptID int64) error {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM receipts
		WHERE id = $1 AND invoice_id = $2
	`, receiptID, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (t *txRepository) SumReceipts(ctx context.Context, invoiceID int64) (float64, error) {
	var paid float64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM receipts WHERE invoice_id = $1
	`, invoiceID).Scan(&paid)
	return paid, err
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM receipts WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) LockQuotation(ctx context.Context, quotationID int64) (*QuotationSnapshot, error) {
	var snap QuotationSnapshot
	err := t.tx.QueryRow(ctx, `
		SELECT id, number, customer_id, status, notes
		FROM quotations
		WHERE id = $1
		FOR UPDATE
	`, quotationID).Scan(&snap.ID, &snap.Number, &snap.CustomerID, &snap.Status, &snap.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := t.tx.Query(ctx, `
		SELECT product_id, quantity, unit_price
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item SnapshotItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		snap.Items = append(snap.Items, item)
	}
	return &snap, rows.Err()
}

// FindByQuotation returns the id of the invoice already created from
// the quotation, or ErrNotFound when none exists.
func (t *txRepository) FindByQuotation(ctx context.Context, quotationID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		SELECT id FROM invoices WHERE quotation_id = $1
	`, quotationID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return id, nil
}
