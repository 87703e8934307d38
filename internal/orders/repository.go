package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikari-shop/hikari/internal/platform/db"
	"github.com/hikari-shop/hikari/internal/shared"
)

// ListFilter narrows the order listing.
type ListFilter struct {
	UserID string
	Status *Status
	Page   int
	Limit  int
}

// StatusUpdate carries admin-editable order fields.
type StatusUpdate struct {
	Status         Status
	TrackingNumber *string
}

// Repository persists orders in PostgreSQL.
type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	CancelAndRestock(ctx context.Context, order *Order) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, order_number, user_id, status, payment_method, payment_status,
subtotal, tax_amount, shipping_amount, total_amount, currency,
ship_full_name, ship_phone, ship_address, ship_city, ship_postal_code,
notes, tracking_number, shipped_at, delivered_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.UserID != "" {
		where += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, filter.UserID)
		argPos++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, where, argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range list {
		items, err := r.loadItems(ctx, list[i].ID)
		if err != nil {
			return nil, 0, err
		}
		list[i].Items = items
	}
	return list, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW()`
	args := []interface{}{id, update.Status}
	argPos := 3

	switch update.Status {
	case StatusShipped:
		query += `, shipped_at = NOW()`
	case StatusDelivered:
		query += `, delivered_at = NOW()`
	}
	if update.TrackingNumber != nil {
		query += fmt.Sprintf(`, tracking_number = $%d`, argPos)
		args = append(args, *update.TrackingNumber)
	}
	query += ` WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CancelAndRestock marks the order CANCELLED and restores each line's stock
// (variant-aware) within one transaction.
func (r *repository) CancelAndRestock(ctx context.Context, order *Order) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status IN ($3, $4)`,
			order.ID, StatusCancelled, StatusPending, StatusProcessing)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		for _, item := range order.Items {
			if item.VariantID != nil {
				_, err = tx.Exec(ctx, `UPDATE product_variants SET stock = stock + $2 WHERE id = $1`, *item.VariantID, item.Quantity)
			} else {
				_, err = tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, item.ProductID, item.Quantity)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, variant_id, name, product_image, color, size, quantity, unit_price, total_price
FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Name, &item.ProductImage,
			&item.Color, &item.Size, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var shippedAt, deliveredAt *time.Time
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.Subtotal, &o.TaxAmount, &o.ShippingAmount, &o.TotalAmount, &o.Currency,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Phone, &o.ShippingAddress.Address,
		&o.ShippingAddress.City, &o.ShippingAddress.PostalCode,
		&o.Notes, &o.TrackingNumber, &shippedAt, &deliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	o.ShippedAt = shippedAt
	o.DeliveredAt = deliveredAt
	return &o, nil
}
