package purchasing

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
	ErrNotFound     = errors.New("purchasing: order not found")
	ErrItemNotFound = errors.New("purchasing: order item not found")
)

// poTotals recomputes purchase_orders.total_amount from its items.
var poTotals = shared.TotalRecalc{
	Table:       "purchase_orders",
	ItemTable:   "purchase_order_items",
	FKColumn:    "purchase_order_id",
	PriceColumn: "unit_cost",
}

// Repository defines read access plus the transactional entry point.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, req ListRequest) ([]PurchaseOrder, int, error)
}

// TxRepository defines the mutations available inside a transaction.
type TxRepository interface {
	Insert(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertItem(ctx context.Context, item PurchaseOrderItem) (int64, error)
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error)
	ListItems(ctx context.Context, orderID int64) ([]PurchaseOrderItem, error)
	SetReceived(ctx context.Context, id int64) error
	IncrementStock(ctx context.Context, productID int64, quantity int) error
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

func (r *repository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `
		SELECT po.id, po.supplier_id, s.name, po.status, po.order_date,
		       po.total_amount, po.received_at, po.created_at, po.updated_at
		FROM purchase_orders po
		JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.id = $1
	`, id).Scan(&po.ID, &po.SupplierID, &po.SupplierName, &po.Status, &po.OrderDate,
		&po.TotalAmount, &po.ReceivedAt, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.purchase_order_id, i.product_id,
		       p.animal_type || ' - ' || p.meat_cut, i.quantity, i.unit_cost
		FROM purchase_order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.purchase_order_id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitCost); err != nil {
			return nil, err
		}
		po.Items = append(po.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]PurchaseOrder, int, error) {
	where := ""
	args := []any{}
	argPos := 1
	if req.Status != nil {
		where = fmt.Sprintf("WHERE po.status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM purchase_orders po %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT po.id, po.supplier_id, s.name, po.status, po.order_date,
		       po.total_amount, po.received_at, po.created_at, po.updated_at
		FROM purchase_orders po
		JOIN suppliers s ON s.id = po.supplier_id
		%s
		ORDER BY po.id DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.SupplierID, &po.SupplierName, &po.Status, &po.OrderDate,
			&po.TotalAmount, &po.ReceivedAt, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, po)
	}
	return orders, total, rows.Err()
}

func (t *txRepository) Insert(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_id, status, order_date, total_amount)
		VALUES ($1, $2, $3, 0)
		RETURNING id
	`, po.SupplierID, po.Status, po.OrderDate).Scan(&id)
	return id, err
}

func (t *txRepository) InsertItem(ctx context.Context, item PurchaseOrderItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.PurchaseOrderID, item.ProductID, item.Quantity, item.UnitCost).Scan(&id)
	return id, err
}

func (t *txRepository) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM purchase_order_items
		WHERE id = $1 AND purchase_order_id = $2
	`, itemID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetForUpdate locks the order header for the rest of the transaction.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := t.tx.QueryRow(ctx, `
		SELECT id, supplier_id, status, order_date, total_amount, received_at, created_at, updated_at
		FROM purchase_orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&po.ID, &po.SupplierID, &po.Status, &po.OrderDate, &po.TotalAmount, &po.ReceivedAt, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (t *txRepository) ListItems(ctx context.Context, orderID int64) ([]PurchaseOrderItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost
		FROM purchase_order_items
		WHERE purchase_order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PurchaseOrderItem
	for rows.Next() {
		var item PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductID, &item.Quantity, &item.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *txRepository) SetReceived(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, received_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, StatusReceived, id)
	return err
}

func (t *txRepository) IncrementStock(ctx context.Context, productID int64, quantity int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchasing: product %d missing during receive", productID)
	}
	return nil
}

func (t *txRepository) RecalcTotal(ctx context.Context, id int64) error {
	return poTotals.Apply(ctx, t.tx, id)
}

func (t *txRepository) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
