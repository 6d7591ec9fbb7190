package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultImageURL is used when a product is stored without an image.
const DefaultImageURL = "default-product.jpg"

// LowStockThreshold is the quantity under which an in-stock product is low on stock.
const LowStockThreshold = 5

// Category is one of the fixed product categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryFood        Category = "Food"
	CategoryBooks       Category = "Books"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryFood,
	CategoryBooks,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Price       float64   `json:"price" gorm:"not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	Category    Category  `json:"category" gorm:"type:varchar(32);not null;index"`
	InStock     bool      `json:"inStock" gorm:"not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Tags        []string  `json:"tags" gorm:"serializer:json"`
	ImageURL    string    `json:"imageUrl" gorm:"type:varchar(512)"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FormattedPrice renders the price with two decimals and the currency suffix.
func (p Product) FormattedPrice() string {
	return decimal.NewFromFloat(p.Price).StringFixed(2) + " €"
}

// IsLowStock reports whether the product is in stock with fewer than LowStockThreshold units.
func (p Product) IsLowStock() bool {
	return p.Quantity < LowStockThreshold && p.InStock
}

// EnforceInvariants applies the rules every stored product must satisfy.
// It must run before each write.
func (p *Product) EnforceInvariants() {
	if p.Quantity == 0 {
		p.InStock = false
	}
}

// MarshalJSON adds the derived fields to the stored ones.
func (p Product) MarshalJSON() ([]byte, error) {
	type stored Product
	return json.Marshal(struct {
		stored
		FormattedPrice string `json:"formattedPrice"`
		LowStock       bool   `json:"lowStock"`
	}{
		stored:         stored(p),
		FormattedPrice: p.FormattedPrice(),
		LowStock:       p.IsLowStock(),
	})
}
