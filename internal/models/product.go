package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the catalog filters.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
}

// Spec is one row of a product's specification table.
type Spec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product is a catalog item offered in the storefront.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Product information
	SKU         string          `gorm:"size:50;not null;uniqueIndex" json:"sku"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image       string          `gorm:"size:255" json:"image,omitempty"`
	Badge       string          `gorm:"size:50" json:"badge,omitempty"`

	CategoryID uint      `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// Rating is the average review score out of 5.
	Rating      float64 `gorm:"type:decimal(2,1);default:0" json:"rating"`
	ReviewCount int     `gorm:"default:0" json:"review_count"`
	Stock       int     `gorm:"not null;default:0" json:"stock"`

	// Detail page data
	Colors         []string `gorm:"serializer:json" json:"colors,omitempty"`
	Images         []string `gorm:"serializer:json" json:"images,omitempty"`
	Features       []string `gorm:"serializer:json" json:"features,omitempty"`
	Specifications []Spec   `gorm:"serializer:json" json:"specifications,omitempty"`
	ShippingNote   string   `gorm:"size:255" json:"shipping_note,omitempty"`
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ClampQuantity bounds a requested quantity to [1, Stock].
func (p Product) ClampQuantity(qty int) int {
	if qty > p.Stock {
		qty = p.Stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// FullStars returns the number of whole stars to draw for the rating.
func (p Product) FullStars() int {
	n := int(p.Rating)
	if n > 5 {
		n = 5
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Gallery returns the detail images, falling back to the listing image.
func (p Product) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Image != "" {
		return []string{p.Image}
	}
	return nil
}
