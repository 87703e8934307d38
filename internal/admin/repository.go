package admin

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository computes dashboard aggregates from PostgreSQL.
type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const recentOrdersLimit = 5

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{GeneratedAt: time.Now().UTC()}

	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
FROM orders WHERE status <> 'CANCELLED'`).Scan(&summary.TotalRevenue, &summary.TotalSales)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status IN ('PENDING', 'PROCESSING')`).
		Scan(&summary.PendingOrders)
	if err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&summary.TotalUsers); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&summary.TotalProducts); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p
WHERE p.is_active
  AND (CASE WHEN p.has_variants
       THEN COALESCE((SELECT SUM(v.stock) FROM product_variants v WHERE v.product_id = p.id), 0)
       ELSE p.stock END) <= 0`).Scan(&summary.OutOfStockProducts)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).
		Scan(&summary.UnreadNotifications)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT o.id, o.order_number, u.full_name, o.total_amount, o.status, o.created_at
FROM orders o JOIN users u ON u.id = o.user_id
ORDER BY o.created_at DESC, o.id LIMIT $1`, recentOrdersLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ro RecentOrder
		if err := rows.Scan(&ro.ID, &ro.OrderNumber, &ro.CustomerName, &ro.TotalAmount, &ro.Status, &ro.CreatedAt); err != nil {
			return nil, err
		}
		summary.RecentOrders = append(summary.RecentOrders, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summary, nil
}
