package categories

import "time"

// Category groups products for storefront navigation. Names and
// descriptions are bilingual (English + Arabic).
type Category struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameAr        string    `json:"name_ar"`
	Description   string    `json:"description"`
	DescriptionAr string    `json:"description_ar"`
	Slug          string    `json:"slug"`
	ImageURL      string    `json:"image_url"`
	SortOrder     int       `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	ProductsCount int       `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
