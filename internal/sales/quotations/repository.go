package quotations

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
	ErrNotFound     = errors.New("quotations: not found")
	ErrItemNotFound = errors.New("quotations: item not found")
)

// quotationTotals recomputes quotations.total_amount from its items.
var quotationTotals = shared.TotalRecalc{
	Table:       "quotations",
	ItemTable:   "quotation_items",
	FKColumn:    "quotation_id",
	PriceColumn: "unit_price",
}

// Repository defines read access plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListRequest) ([]Quotation, int, error)
}

// TxRepository defines the mutations available inside a transaction.
type TxRepository interface {
	NextNumber(ctx context.Context) (string, error)
	Insert(ctx context.Context, q Quotation) (int64, error)
	InsertItem(ctx context.Context, item QuotationItem) (int64, error)
	DeleteItem(ctx context.Context, quotationID, itemID int64) error
	GetForUpdate(ctx context.Context, id int64) (*Quotation, error)
	SetStatus(ctx context.Context, id int64, status QuotationStatus) error
	RecalcTotal(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
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

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	var q Quotation
	err := r.pool.QueryRow(ctx, `
		SELECT q.id, q.number, q.customer_id, c.name, q.quote_date, q.status,
		       q.total_amount, q.notes, q.created_at, q.updated_at
		FROM quotations q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.id = $1
	`, id).Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.QuoteDate, &q.Status,
		&q.TotalAmount, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.quotation_id, i.product_id,
		       COALESCE(p.animal_type || ' - ' || p.meat_cut, 'Deleted product'),
		       i.quantity, i.unit_price
		FROM quotation_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.quotation_id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item QuotationItem
		if err := rows.Scan(&item.ID, &item.QuotationID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		q.Items = append(q.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Customer != nil {
		conditions = append(conditions, fmt.Sprintf("q.customer_id = $%d", argPos))
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotations q %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT q.id, q.number, q.customer_id, c.name, q.quote_date, q.status,
		       q.total_amount, q.notes, q.created_at, q.updated_at
		FROM quotations q
		JOIN customers c ON c.id = q.customer_id
		%s
		ORDER BY q.id DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.QuoteDate, &q.Status,
			&q.TotalAmount, &q.Notes, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, q)
	}
	return result, total, rows.Err()
}

// NextNumber reserves the next quotation number inside the transaction.
func (t *txRepository) NextNumber(ctx context.Context) (string, error) {
	return shared.QuotationNumbers.Next(ctx, t.tx)
}

func (t *txRepository) Insert(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO quotations (number, customer_id, quote_date, status, total_amount, notes)
		VALUES ($1, $2, $3, $4, 0, $5)
		RETURNING id
	`, q.Number, q.CustomerID, q.QuoteDate, q.Status, q.Notes).Scan(&id)
	return id, err
}

func (t *txRepository) InsertItem(ctx context.Context, item QuotationItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO quotation_items (quotation_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.QuotationID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&id)
	return id, err
}

func (t *txRepository) DeleteItem(ctx context.Context, quotationID, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM quotation_items
		WHERE id = $1 AND quotation_id = $2
	`, itemID, quotationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	var q Quotation
	err := t.tx.QueryRow(ctx, `
		SELECT id, number, customer_id, quote_date, status, total_amount, notes, created_at, updated_at
		FROM quotations
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&q.ID, &q.Number, &q.CustomerID, &q.QuoteDate, &q.Status, &q.TotalAmount, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (t *txRepository) SetStatus(ctx context.Context, id int64, status QuotationStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	return err
}

func (t *txRepository) RecalcTotal(ctx context.Context, id int64) error {
	return quotationTotals.Apply(ctx, t.tx, id)
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
