package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the admin notification feed. Writers insert rows inside
// their own transactions (checkout) or jobs (low stock).
type Repository interface {
	List(ctx context.Context, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkAllRead(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, type, message, link, is_read, created_at
FROM notifications ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *repository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&count)
	return count, err
}

// MarkAllRead flips every unread notification in one statement.
func (r *repository) MarkAllRead(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE NOT is_read`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
