package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikari-shop/hikari/internal/cart"
	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/notifications"
	"github.com/hikari-shop/hikari/internal/orders"
	"github.com/hikari-shop/hikari/internal/platform/db"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Tx is the unit-of-work surface a checkout runs against. Every method
// executes inside the same database transaction, so stock reads made through
// ProductForUpdate stay valid until commit.
type Tx interface {
	CartLines(ctx context.Context, userID string) ([]cart.Item, error)
	ProductForUpdate(ctx context.Context, id string) (*products.Product, error)
	DecrementStock(ctx context.Context, productID string, variantID *string, quantity int) error
	InsertOrder(ctx context.Context, order *orders.Order) error
	ClearCart(ctx context.Context, userID string) error
	InsertNotification(ctx context.Context, n *notifications.Notification) error
}

// Repository opens checkout transactions.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) CartLines(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, user_id, product_id, variant_id, quantity, color_name, size_name, created_at, updated_at
FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cart.Item
	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.VariantID, &item.Quantity,
			&item.ColorName, &item.SizeName, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, item)
	}
	return lines, rows.Err()
}

// ProductForUpdate loads the product and its variants under row locks, so the
// stock figures it returns cannot change before the transaction commits.
func (t *pgTx) ProductForUpdate(ctx context.Context, id string) (*products.Product, error) {
	var p products.Product
	err := t.tx.QueryRow(ctx, `SELECT id, name, name_ar, description, description_ar, price, sale_price, sku, stock, category_id,
tags, featured, is_new, bestseller, on_sale, is_active, has_variants, rating, review_count, created_at, updated_at
FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.NameAr, &p.Description, &p.DescriptionAr, &p.Price, &p.SalePrice, &p.SKU, &p.Stock, &p.CategoryID,
			&p.Tags, &p.Featured, &p.IsNew, &p.Bestseller, &p.OnSale, &p.IsActive, &p.HasVariants, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	imgRows, err := t.tx.Query(ctx, `SELECT id, product_id, image_url, alt_text, sort_order
FROM product_images WHERE product_id = $1 ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img products.ProductImage
		var productID string
		if err := imgRows.Scan(&img.ID, &productID, &img.ImageURL, &img.AltText, &img.SortOrder); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	if err := imgRows.Err(); err != nil {
		return nil, err
	}

	varRows, err := t.tx.Query(ctx, `SELECT id, product_id, color_code, color_name, size, sku, stock
FROM product_variants WHERE product_id = $1 ORDER BY sku FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	defer varRows.Close()
	for varRows.Next() {
		var v products.Variant
		if err := varRows.Scan(&v.ID, &v.ProductID, &v.ColorCode, &v.ColorName, &v.Size, &v.SKU, &v.Stock); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := varRows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, variantID *string, quantity int) error {
	var tag pgconn.CommandTag
	var err error
	if variantID != nil {
		tag, err = t.tx.Exec(ctx, `UPDATE product_variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2`, *variantID, quantity)
	} else {
		tag, err = t.tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`, productID, quantity)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO orders (id, order_number, user_id, status, payment_method, payment_status,
subtotal, tax_amount, shipping_amount, total_amount, currency,
ship_full_name, ship_phone, ship_address, ship_city, ship_postal_code,
notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.Subtotal, o.TaxAmount, o.ShippingAmount, o.TotalAmount, o.Currency,
		o.ShippingAddress.FullName, o.ShippingAddress.Phone, o.ShippingAddress.Address,
		o.ShippingAddress.City, o.ShippingAddress.PostalCode,
		o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for _, item := range o.Items {
		if _, err := t.tx.Exec(ctx, `INSERT INTO order_items (id, order_id, product_id, variant_id, name, product_image, color, size, quantity, unit_price, total_price)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			item.ID, o.ID, item.ProductID, item.VariantID, item.Name, item.ProductImage,
			item.Color, item.Size, item.Quantity, item.UnitPrice, item.TotalPrice); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (t *pgTx) InsertNotification(ctx context.Context, n *notifications.Notification) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO notifications (id, type, message, link, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`, n.ID, n.Type, n.Message, n.Link, n.IsRead, n.CreatedAt)
	return err
}
