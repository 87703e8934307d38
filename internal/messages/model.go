package messages

import "time"

// Conversation groups a shopper's messages with the back-office.
type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	Subject       string    `json:"subject"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message is a single entry in a conversation. IsFromAdmin marks staff
// replies; IsRead tracks whether the other side has seen it.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Body           string    `json:"body"`
	IsFromAdmin    bool      `json:"is_from_admin"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
