package messages

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikari-shop/hikari/internal/platform/db"
	"github.com/hikari-shop/hikari/internal/shared"
)

// Repository persists conversations and their messages.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	List(ctx context.Context) ([]Conversation, error)
	Create(ctx context.Context, c *Conversation) error
	Messages(ctx context.Context, conversationID string) ([]Message, error)
	Append(ctx context.Context, m *Message) error
	MarkRead(ctx context.Context, conversationID string, fromAdmin bool) error
	UnreadFromShoppers(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const conversationColumns = `c.id, c.user_id, u.full_name, c.subject, c.last_message_at, c.created_at`

func (r *repository) FindByUser(ctx context.Context, userID string) (*Conversation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+`
FROM conversations c JOIN users u ON u.id = c.user_id WHERE c.user_id = $1`, userID)
	return scanConversation(row)
}

func (r *repository) Get(ctx context.Context, id string) (*Conversation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+`
FROM conversations c JOIN users u ON u.id = c.user_id WHERE c.id = $1`, id)
	return scanConversation(row)
}

func (r *repository) List(ctx context.Context) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+conversationColumns+`
FROM conversations c JOIN users u ON u.id = c.user_id ORDER BY c.last_message_at DESC, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (r *repository) Create(ctx context.Context, c *Conversation) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO conversations (id, user_id, subject, last_message_at, created_at)
VALUES ($1,$2,$3,$4,$5)`, c.ID, c.UserID, c.Subject, c.LastMessageAt, c.CreatedAt)
	return err
}

func (r *repository) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, conversation_id, sender_id, sender_name, body, is_from_admin, is_read, created_at
FROM messages WHERE conversation_id = $1 ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Body,
			&m.IsFromAdmin, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Append inserts a message and bumps the conversation timestamp together.
func (r *repository) Append(ctx context.Context, m *Message) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO messages (id, conversation_id, sender_id, sender_name, body, is_from_admin, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			m.ID, m.ConversationID, m.SenderID, m.SenderName, m.Body, m.IsFromAdmin, m.IsRead, m.CreatedAt)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE conversations SET last_message_at = $2 WHERE id = $1`, m.ConversationID, m.CreatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) MarkRead(ctx context.Context, conversationID string, fromAdmin bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET is_read = TRUE
WHERE conversation_id = $1 AND is_from_admin = $2 AND NOT is_read`, conversationID, fromAdmin)
	return err
}

func (r *repository) UnreadFromShoppers(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE NOT is_from_admin AND NOT is_read`).Scan(&count)
	return count, err
}

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.UserName, &c.Subject, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
