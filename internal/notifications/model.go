package notifications

import "time"

// Type tags the origin of an admin notification.
type Type string

const (
	TypeNewOrder Type = "NEW_ORDER"
	TypeLowStock Type = "LOW_STOCK"
)

// Notification is an admin-facing event record.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
