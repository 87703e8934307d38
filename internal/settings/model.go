package settings

import "time"

// Settings is the single global record consulted at checkout time.
type Settings struct {
	ShippingCost float64   `json:"shipping_cost"`
	TaxRate      float64   `json:"tax_rate"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Defaults used when the settings record is absent.
const (
	DefaultShippingCost = 25
	DefaultTaxRate      = 0.15
	DefaultCurrency     = "SAR"
)

// Default returns the hardcoded fallback settings.
func Default() Settings {
	return Settings{
		ShippingCost: DefaultShippingCost,
		TaxRate:      DefaultTaxRate,
		Currency:     DefaultCurrency,
	}
}
