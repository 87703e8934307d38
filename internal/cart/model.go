package cart

import "time"

// Item is one line in a shopper's cart. Color/size names are denormalized
// from the chosen variant at the time the line was added.
type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	VariantID *string   `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	ColorName string    `json:"color_name,omitempty"`
	SizeName  string    `json:"size_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
