package categories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikari-shop/hikari/internal/shared"
)

// Repository persists categories in PostgreSQL.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, category Category) error
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id string) error
	CountProducts(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const categoryColumns = `id, name, name_ar, description, description_ar, slug, image_url, sort_order, is_active, products_count, created_at, updated_at`

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	c, err := scanCategory(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c Category) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO categories (id, name, name_ar, description, description_ar, slug, image_url, sort_order, is_active, products_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$11)`,
		c.ID, c.Name, c.NameAr, c.Description, c.DescriptionAr, c.Slug, c.ImageURL, c.SortOrder, c.IsActive, now, now)
	return err
}

func (r *repository) Update(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories
SET name=$2, name_ar=$3, description=$4, description_ar=$5, slug=$6, image_url=$7, sort_order=$8, is_active=$9, updated_at=NOW()
WHERE id=$1`,
		c.ID, c.Name, c.NameAr, c.Description, c.DescriptionAr, c.Slug, c.ImageURL, c.SortOrder, c.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(products_count),0) FROM categories`).Scan(&count)
	return count, err
}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.NameAr, &c.Description, &c.DescriptionAr, &c.Slug, &c.ImageURL,
		&c.SortOrder, &c.IsActive, &c.ProductsCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}
