package reporting

import "time"

// Totals are the headline figures on the dashboard.
type Totals struct {
	TotalSales         float64 `json:"total_sales"`
	SalesThisMonth     float64 `json:"sales_this_month"`
	TotalPurchases     float64 `json:"total_purchases"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	Customers          int     `json:"customers"`
	Products           int     `json:"products"`
	ActiveEmployees    int     `json:"active_employees"`
	PendingOrders      int     `json:"pending_orders"`
	OpenInvoices       int     `json:"open_invoices"`
	Quotations         int     `json:"quotations"`
	PendingQuotations  int     `json:"pending_quotations"`
}

// LowStockProduct is a product at or below the reorder threshold.
type LowStockProduct struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	WeightKG float64 `json:"weight_kg"`
	Stock    int     `json:"stock"`
}

// RecentDocument is one row in the recent-activity lists. Party is the
// customer or supplier name depending on the document kind.
type RecentDocument struct {
	ID     int64     `json:"id"`
	Number string    `json:"number"`
	Party  string    `json:"party"`
	Amount float64   `json:"amount"`
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
}

// MonthlyTotal is one bar in the sales-by-month chart.
type MonthlyTotal struct {
	Month time.Time `json:"month"`
	Total float64   `json:"total"`
}

// Dashboard is the full reporting snapshot served at /dashboard.
type Dashboard struct {
	Totals           Totals            `json:"totals"`
	LowStock         []LowStockProduct `json:"low_stock"`
	RecentQuotations []RecentDocument  `json:"recent_quotations"`
	RecentInvoices   []RecentDocument  `json:"recent_invoices"`
	RecentReceipts   []RecentDocument  `json:"recent_receipts"`
	RecentOrders     []RecentDocument  `json:"recent_orders"`
	MonthlySales     []MonthlyTotal    `json:"monthly_sales"`
	MonthlyPurchases []MonthlyTotal    `json:"monthly_purchases"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// ChartData is the JSON payload behind the dashboard charts.
type ChartData struct {
	MonthlySales     []MonthlyTotal `json:"monthly_sales"`
	MonthlyPurchases []MonthlyTotal `json:"monthly_purchases"`
}

// Chart extracts the chart series from the snapshot.
func (d *Dashboard) Chart() ChartData {
	return ChartData{MonthlySales: d.MonthlySales, MonthlyPurchases: d.MonthlyPurchases}
}
