package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalCustomers int             `json:"total_customers"`
	TotalProducts  int             `json:"total_products"`
	TotalOrders    int             `json:"total_orders"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// DashboardStats aggregates the counts shown on the admin dashboard. Revenue
// excludes cancelled orders.
func (r *postgresRepository) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[string]int),
		TotalRevenue:   decimal.Zero,
	}

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count customers: %w", err)
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&stats.TotalProducts)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count products: %w", err)
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count orders: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to count orders by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("repository: failed to scan status count: %w", err)
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating status counts: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> $1`,
		string(StatusCancelled),
	).Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to sum revenue: %w", err)
	}

	return stats, nil
}
