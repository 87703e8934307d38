package products

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

// Filter narrows the public product listing.
type Filter struct {
	CategoryID string
	Featured   bool
	New        bool
	Bestseller bool
	OnSale     bool
	InStock    bool
	Search     string
	Page       int
	Limit      int
}

// Repository persists products in PostgreSQL.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Product, int, error)
	ListAdmin(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, name, name_ar, description, description_ar, price, sale_price, sku, stock, category_id,
tags, featured, is_new, bestseller, on_sale, is_active, has_variants, rating, review_count, created_at, updated_at`

// List applies storefront filters with keyset-free offset pagination.
func (r *repository) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	where := `WHERE is_active`
	args := []interface{}{}
	argPos := 1

	if filter.CategoryID != "" {
		where += fmt.Sprintf(" AND category_id = $%d", argPos)
		args = append(args, filter.CategoryID)
		argPos++
	}
	if filter.Featured {
		where += " AND featured"
	}
	if filter.New {
		where += " AND is_new"
	}
	if filter.Bestseller {
		where += " AND bestseller"
	}
	if filter.OnSale {
		where += " AND on_sale"
	}
	if filter.InStock {
		where += ` AND (CASE WHEN has_variants
			THEN COALESCE((SELECT SUM(v.stock) FROM product_variants v WHERE v.product_id = products.id), 0)
			ELSE stock END) > 0`
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR name_ar ILIKE $%d OR sku ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		productColumns, where, argPos, argPos+1)
	args = append(args, limit, (page-1)*limit)

	list, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAdmin returns all products newest first.
func (r *repository) ListAdmin(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
}

func (r *repository) Get(ctx context.Context, id string) (*Product, error) {
	list, err := r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, shared.ErrNotFound
	}
	return &list[0], nil
}

func (r *repository) Create(ctx context.Context, p Product) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		_, err := tx.Exec(ctx, `INSERT INTO products (id, name, name_ar, description, description_ar, price, sale_price, sku, stock, category_id,
tags, featured, is_new, bestseller, on_sale, is_active, has_variants, rating, review_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,0,0,$18,$19)`,
			p.ID, p.Name, p.NameAr, p.Description, p.DescriptionAr, p.Price, p.SalePrice, p.SKU, p.Stock, p.CategoryID,
			p.Tags, p.Featured, p.IsNew, p.Bestseller, p.OnSale, p.IsActive, p.HasVariants, now, now)
		if err != nil {
			return err
		}
		if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
			return err
		}
		if err := insertVariants(ctx, tx, p.ID, p.Variants); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE categories SET products_count = products_count + 1, updated_at = NOW() WHERE id = $1`, p.CategoryID)
		return err
	})
}

// Update replaces the product row along with its image and variant sets.
// A category change moves the denormalized products_count across rows.
func (r *repository) Update(ctx context.Context, p Product) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var prevCategory string
		err := tx.QueryRow(ctx, `SELECT category_id FROM products WHERE id = $1 FOR UPDATE`, p.ID).Scan(&prevCategory)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE products
SET name=$2, name_ar=$3, description=$4, description_ar=$5, price=$6, sale_price=$7, sku=$8, stock=$9, category_id=$10,
    tags=$11, featured=$12, is_new=$13, bestseller=$14, on_sale=$15, is_active=$16, has_variants=$17, updated_at=NOW()
WHERE id=$1`,
			p.ID, p.Name, p.NameAr, p.Description, p.DescriptionAr, p.Price, p.SalePrice, p.SKU, p.Stock, p.CategoryID,
			p.Tags, p.Featured, p.IsNew, p.Bestseller, p.OnSale, p.IsActive, p.HasVariants)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
			return err
		}
		if err := insertImages(ctx, tx, p.ID, p.Images); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
			return err
		}
		if err := insertVariants(ctx, tx, p.ID, p.Variants); err != nil {
			return err
		}

		if prevCategory != p.CategoryID {
			if _, err := tx.Exec(ctx, `UPDATE categories SET products_count = GREATEST(products_count - 1, 0), updated_at = NOW() WHERE id = $1`, prevCategory); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE categories SET products_count = products_count + 1, updated_at = NOW() WHERE id = $1`, p.CategoryID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var categoryID string
		err := tx.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING category_id`, id).Scan(&categoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE categories SET products_count = GREATEST(products_count - 1, 0), updated_at = NOW() WHERE id = $1`, categoryID)
		return err
	})
}

func (r *repository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Product
	index := map[string]int{}
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.ID, &p.Name, &p.NameAr, &p.Description, &p.DescriptionAr, &p.Price, &p.SalePrice, &p.SKU, &p.Stock, &p.CategoryID,
			&p.Tags, &p.Featured, &p.IsNew, &p.Bestseller, &p.OnSale, &p.IsActive, &p.HasVariants, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(list)
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}

	imgRows, err := r.pool.Query(ctx, `SELECT id, product_id, image_url, alt_text, sort_order
FROM product_images WHERE product_id = ANY($1) ORDER BY sort_order, id`, ids)
	if err != nil {
		return nil, err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img ProductImage
		var productID string
		if err := imgRows.Scan(&img.ID, &productID, &img.ImageURL, &img.AltText, &img.SortOrder); err != nil {
			return nil, err
		}
		if i, ok := index[productID]; ok {
			list[i].Images = append(list[i].Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, err
	}

	varRows, err := r.pool.Query(ctx, `SELECT id, product_id, color_code, color_name, size, sku, stock
FROM product_variants WHERE product_id = ANY($1) ORDER BY sku`, ids)
	if err != nil {
		return nil, err
	}
	defer varRows.Close()
	for varRows.Next() {
		var v Variant
		if err := varRows.Scan(&v.ID, &v.ProductID, &v.ColorCode, &v.ColorName, &v.Size, &v.SKU, &v.Stock); err != nil {
			return nil, err
		}
		if i, ok := index[v.ProductID]; ok {
			list[i].Variants = append(list[i].Variants, v)
		}
	}
	return list, varRows.Err()
}

func insertImages(ctx context.Context, tx pgx.Tx, productID string, images []ProductImage) error {
	for i, img := range images {
		if _, err := tx.Exec(ctx, `INSERT INTO product_images (id, product_id, image_url, alt_text, sort_order)
VALUES ($1,$2,$3,$4,$5)`, img.ID, productID, img.ImageURL, img.AltText, i); err != nil {
			return err
		}
	}
	return nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, productID string, variants []Variant) error {
	for _, v := range variants {
		if _, err := tx.Exec(ctx, `INSERT INTO product_variants (id, product_id, color_code, color_name, size, sku, stock)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, v.ID, productID, v.ColorCode, v.ColorName, v.Size, v.SKU, v.Stock); err != nil {
			return err
		}
	}
	return nil
}
