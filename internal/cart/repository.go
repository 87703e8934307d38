package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikari-shop/hikari/internal/shared"
)

// Repository persists cart lines in PostgreSQL.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Item, error)
	Get(ctx context.Context, userID, itemID string) (*Item, error)
	FindLine(ctx context.Context, userID, productID string, variantID *string) (*Item, error)
	Insert(ctx context.Context, item Item) error
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, user_id, product_id, variant_id, quantity, color_name, size_name, created_at, updated_at`

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, itemID string) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM cart_items WHERE user_id = $1 AND id = $2`, userID, itemID)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindLine(ctx context.Context, userID, productID string, variantID *string) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM cart_items
WHERE user_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3`, userID, productID, variantID)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Insert(ctx context.Context, item Item) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity, color_name, size_name, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		item.ID, item.UserID, item.ProductID, item.VariantID, item.Quantity, item.ColorName, item.SizeName, now, now)
	return err
}

func (r *repository) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity = $3, updated_at = NOW() WHERE user_id = $1 AND id = $2`, userID, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, userID, itemID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`, userID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.VariantID, &item.Quantity,
		&item.ColorName, &item.SizeName, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}
