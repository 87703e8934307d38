package products

import (
	"fmt"
	"strings"
	"time"
)

// ProductImage is one entry of a product's ordered image gallery.
type ProductImage struct {
	ID        string `json:"id"`
	ImageURL  string `json:"image_url"`
	AltText   string `json:"alt_text"`
	SortOrder int    `json:"sort_order"`
}

// Variant is a specific color/size combination with its own stock count.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	ColorCode string `json:"color_code"`
	ColorName string `json:"color_name"`
	Size      string `json:"size"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
}

// Product is a catalog item. When HasVariants is set the authoritative
// stock is the sum of variant stocks, not the top-level Stock field.
type Product struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	NameAr        string         `json:"name_ar"`
	Description   string         `json:"description"`
	DescriptionAr string         `json:"description_ar"`
	Price         float64        `json:"price"`
	SalePrice     *float64       `json:"sale_price,omitempty"`
	SKU           string         `json:"sku"`
	Stock         int            `json:"stock"`
	CategoryID    string         `json:"category_id"`
	Tags          []string       `json:"tags"`
	Featured      bool           `json:"featured"`
	IsNew         bool           `json:"is_new"`
	Bestseller    bool           `json:"bestseller"`
	OnSale        bool           `json:"on_sale"`
	IsActive      bool           `json:"is_active"`
	HasVariants   bool           `json:"has_variants"`
	Rating        float64        `json:"rating"`
	ReviewCount   int            `json:"review_count"`
	Images        []ProductImage `json:"images"`
	Variants      []Variant      `json:"variants,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AvailableStock resolves the sellable quantity honouring the variant rule.
func (p *Product) AvailableStock() int {
	if !p.HasVariants {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// VariantByID returns the variant with the given id, or nil.
func (p *Product) VariantByID(id string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// EffectiveUnitPrice is the sale price when present, else the list price.
func (p *Product) EffectiveUnitPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// FirstImageURL returns the lead gallery image, or a placeholder.
func (p *Product) FirstImageURL() string {
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return "/placeholder.jpg"
}

// BuildVariantSKU derives the synthetic variant SKU from color/size codes.
func BuildVariantSKU(productSKU, colorCode, size string) string {
	return fmt.Sprintf("%s-%s-%s", productSKU, strings.ToUpper(colorCode), strings.ToUpper(size))
}
