package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The settings table holds at most one row, keyed by a fixed id.
const settingsKey = "general"

// Repository persists the global settings record.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Get returns the stored settings, or the hardcoded defaults when the row
// is absent.
func (r *repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT shipping_cost, tax_rate, currency, updated_at FROM settings WHERE id = $1`, settingsKey).
		Scan(&s.ShippingCost, &s.TaxRate, &s.Currency, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Default(), nil
		}
		return Settings{}, err
	}
	return s, nil
}

// Put upserts the settings record.
func (r *repository) Put(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO settings (id, shipping_cost, tax_rate, currency, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (id) DO UPDATE SET shipping_cost=EXCLUDED.shipping_cost, tax_rate=EXCLUDED.tax_rate, currency=EXCLUDED.currency, updated_at=NOW()`,
		settingsKey, s.ShippingCost, s.TaxRate, s.Currency)
	return err
}
