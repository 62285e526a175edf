package reporting

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the aggregate queries behind the dashboard.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	LowStock(ctx context.Context, threshold, limit int) ([]LowStockProduct, error)
	RecentQuotations(ctx context.Context, limit int) ([]RecentDocument, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentDocument, error)
	RecentReceipts(ctx context.Context, limit int) ([]RecentDocument, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentDocument, error)
	MonthlySales(ctx context.Context, months int) ([]MonthlyTotal, error)
	MonthlyPurchases(ctx context.Context, months int) ([]MonthlyTotal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	// Cancelled invoices are excluded from the outstanding balance;
	// purchases count only orders that were actually received.
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM receipts), 0),
			COALESCE((SELECT SUM(amount) FROM receipts
			          WHERE received_at >= date_trunc('month', NOW())), 0),
			COALESCE((SELECT SUM(total_amount) FROM purchase_orders WHERE status = 'Received'), 0),
			COALESCE((SELECT SUM(i.total_amount) -
			          COALESCE(SUM((SELECT SUM(amount) FROM receipts WHERE invoice_id = i.id)), 0)
			          FROM invoices i WHERE i.status IN ('Unpaid', 'Partially Paid')), 0),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM employees WHERE is_active),
			(SELECT COUNT(*) FROM purchase_orders WHERE status = 'Pending'),
			(SELECT COUNT(*) FROM invoices WHERE status IN ('Unpaid', 'Partially Paid')),
			(SELECT COUNT(*) FROM quotations),
			(SELECT COUNT(*) FROM quotations WHERE status IN ('Draft', 'Sent'))
	`).Scan(&t.TotalSales, &t.SalesThisMonth, &t.TotalPurchases, &t.OutstandingBalance,
		&t.Customers, &t.Products, &t.ActiveEmployees, &t.PendingOrders, &t.OpenInvoices,
		&t.Quotations, &t.PendingQuotations)
	return t, err
}

func (r *repository) LowStock(ctx context.Context, threshold, limit int) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, animal_type || ' - ' || meat_cut, weight_kg, stock
		FROM products
		WHERE stock <= $1
		ORDER BY stock ASC, id
		LIMIT $2
	`, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.WeightKG, &p.Stock); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repository) RecentQuotations(ctx context.Context, limit int) ([]RecentDocument, error) {
	return r.recent(ctx, `
		SELECT q.id, q.number, c.name, q.total_amount, q.status, q.quote_date
		FROM quotations q
		JOIN customers c ON c.id = q.customer_id
		ORDER BY q.id DESC
		LIMIT $1
	`, limit)
}

func (r *repository) RecentInvoices(ctx context.Context, limit int) ([]RecentDocument, error) {
	return r.recent(ctx, `
		SELECT i.id, i.number, c.name, i.total_amount, i.status, i.invoice_date
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		ORDER BY i.id DESC
		LIMIT $1
	`, limit)
}

func (r *repository) RecentReceipts(ctx context.Context, limit int) ([]RecentDocument, error) {
	// Status carries the payment method; receipts have no state machine.
	return r.recent(ctx, `
		SELECT rc.id, rc.number, c.name, rc.amount, rc.payment_method, rc.received_at
		FROM receipts rc
		JOIN invoices i ON i.id = rc.invoice_id
		JOIN customers c ON c.id = i.customer_id
		ORDER BY rc.id DESC
		LIMIT $1
	`, limit)
}

func (r *repository) RecentOrders(ctx context.Context, limit int) ([]RecentDocument, error) {
	return r.recent(ctx, `
		SELECT o.id, 'PO-' || LPAD(o.id::text, 4, '0'), s.name, o.total_amount, o.status, o.order_date
		FROM purchase_orders o
		JOIN suppliers s ON s.id = o.supplier_id
		ORDER BY o.id DESC
		LIMIT $1
	`, limit)
}

func (r *repository) recent(ctx context.Context, query string, limit int) ([]RecentDocument, error) {
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecentDocument
	for rows.Next() {
		var d RecentDocument
		if err := rows.Scan(&d.ID, &d.Number, &d.Party, &d.Amount, &d.Status, &d.Date); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *repository) MonthlySales(ctx context.Context, months int) ([]MonthlyTotal, error) {
	return r.monthly(ctx, `
		SELECT date_trunc('month', received_at) AS month, SUM(amount)
		FROM receipts
		WHERE received_at >= date_trunc('month', NOW()) - ($1 || ' months')::interval
		GROUP BY month
		ORDER BY month
	`, months)
}

func (r *repository) MonthlyPurchases(ctx context.Context, months int) ([]MonthlyTotal, error) {
	return r.monthly(ctx, `
		SELECT date_trunc('month', received_at) AS month, SUM(total_amount)
		FROM purchase_orders
		WHERE status = 'Received'
		  AND received_at >= date_trunc('month', NOW()) - ($1 || ' months')::interval
		GROUP BY month
		ORDER BY month
	`, months)
}

func (r *repository) monthly(ctx context.Context, query string, months int) ([]MonthlyTotal, error) {
	rows, err := r.pool.Query(ctx, query, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
