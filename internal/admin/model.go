package admin

import "time"

// RecentOrder is a dashboard row for the latest orders widget.
type RecentOrder struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  float64   `json:"total_amount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary aggregates the back-office landing page figures. Revenue and sales
// exclude cancelled orders.
type Summary struct {
	TotalRevenue        float64       `json:"total_revenue"`
	TotalSales          int           `json:"total_sales"`
	TotalUsers          int           `json:"total_users"`
	TotalProducts       int           `json:"total_products"`
	PendingOrders       int           `json:"pending_orders"`
	OutOfStockProducts  int           `json:"out_of_stock_products"`
	UnreadNotifications int           `json:"unread_notifications"`
	RecentOrders        []RecentOrder `json:"recent_orders"`
	GeneratedAt         time.Time     `json:"generated_at"`
}
