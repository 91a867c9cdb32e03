package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SKUs of the products placed in a new session's cart when sample carts are enabled.
const (
	SampleEarbudsSKU  = "BBI4-EARBUDS"
	SampleBackpackSKU = "BBI4-BACKPACK"
)

const placeholderImage = "/static/img/placeholder.svg"

var baseCategories = []models.Category{
	{Name: "Electronics", Slug: "electronics"},
	{Name: "Home & Kitchen", Slug: "home-kitchen"},
	{Name: "Fashion", Slug: "fashion"},
	{Name: "Beauty & Health", Slug: "beauty-health"},
	{Name: "Sports & Outdoors", Slug: "sports-outdoors"},
}

type seedProduct struct {
	product  models.Product
	category string
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func baseProducts() []seedProduct {
	return []seedProduct{
		{category: "electronics", product: models.Product{
			SKU:  SampleEarbudsSKU,
			Name: "Wireless Earbuds",
			Description: "Premium wireless earbuds with active noise cancellation, transparency mode, " +
				"and up to 24 hours of battery life with the charging case.",
			Price: price("49.99"), Badge: "Best Seller",
			Rating: 4.8, ReviewCount: 256, Stock: 15,
			Colors: []string{"Black", "White", "Blue"},
			Images: []string{placeholderImage, placeholderImage, placeholderImage, placeholderImage},
			Features: []string{
				"Active Noise Cancellation",
				"Transparency Mode",
				"24-hour Battery Life",
				"Sweat and Water Resistant",
				"Touch Controls",
				"Voice Assistant Compatible",
			},
			Specifications: []models.Spec{
				{Name: "Battery Life", Value: "Up to 6 hours (earbuds) / 24 hours (with case)"},
				{Name: "Connectivity", Value: "Bluetooth 5.2"},
				{Name: "Charging", Value: "USB-C and Wireless Charging"},
				{Name: "Weight", Value: "5.4g per earbud, 45g charging case"},
				{Name: "Compatibility", Value: "iOS, Android, Windows, macOS"},
			},
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-WATCH", Name: "Smart Watch",
			Description: "Track your fitness, receive notifications, and more with this stylish smart watch.",
			Price:       price("89.99"), Badge: "New", Rating: 4.6, ReviewCount: 128, Stock: 20,
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-PHONE-HOLDER", Name: "Phone Holder",
			Description: "Universal phone holder for car dashboard with strong suction cup.",
			Price:       price("19.99"), Rating: 4.2, ReviewCount: 64, Stock: 40,
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-CHARGER", Name: "Portable Charger",
			Description: "10,000mAh portable charger with fast charging capability for all devices.",
			Price:       price("29.99"), Rating: 4.5, ReviewCount: 210, Stock: 30,
		}},
		{category: "fashion", product: models.Product{
			SKU: SampleBackpackSKU, Name: "Laptop Backpack",
			Description: "Water-resistant backpack with USB charging port and anti-theft design.",
			Price:       price("59.99"), Badge: "Popular", Rating: 4.7, ReviewCount: 175, Stock: 12,
			Colors: []string{"Black", "Grey"},
		}},
		{category: "sports-outdoors", product: models.Product{
			SKU: "BBI4-SPEAKER", Name: "Bluetooth Speaker",
			Description: "Waterproof bluetooth speaker with 24-hour battery life and deep bass.",
			Price:       price("39.99"), Rating: 4.4, ReviewCount: 98, Stock: 25,
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-MOUSE", Name: "Wireless Mouse",
			Description: "Ergonomic wireless mouse with adjustable DPI and silent clicks.",
			Price:       price("24.99"), Rating: 4.3, ReviewCount: 143, Stock: 50,
		}},
		{category: "home-kitchen", product: models.Product{
			SKU: "BBI4-DESK-LAMP", Name: "LED Desk Lamp",
			Description: "Adjustable LED desk lamp with multiple brightness levels and color temperatures.",
			Price:       price("34.99"), Rating: 3.9, ReviewCount: 57, Stock: 18,
		}},
		{category: "beauty-health", product: models.Product{
			SKU: "BBI4-FITNESS", Name: "Fitness Tracker",
			Description: "Waterproof fitness tracker with heart rate monitor and sleep tracking.",
			Price:       price("49.99"), Rating: 4.1, ReviewCount: 88, Stock: 22,
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-KEYBOARD", Name: "Wireless Keyboard",
			Description: "Slim wireless keyboard with backlit keys and long battery life.",
			Price:       price("44.99"), Rating: 4.0, ReviewCount: 72, Stock: 16,
		}},
		{category: "fashion", product: models.Product{
			SKU: "BBI4-PHONE-CASE", Name: "Phone Case",
			Description: "Shockproof phone case with card holder for iPhone and Samsung models.",
			Price:       price("14.99"), Rating: 3.6, ReviewCount: 41, Stock: 60,
		}},
		{category: "electronics", product: models.Product{
			SKU: "BBI4-WIRELESS-CHARGER", Name: "Wireless Charger",
			Description: "Fast wireless charger compatible with all Qi-enabled devices.",
			Price:       price("29.99"), Rating: 4.4, ReviewCount: 119, Stock: 35,
		}},
	}
}

// Seed inserts the sample catalog. Existing rows are left untouched, so it
// is safe to run on every start.
func Seed(db *gorm.DB) error {
	categoryIDs := map[string]uint{}
	for _, c := range baseCategories {
		var existing models.Category
		err := db.Where("slug = ?", c.Slug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c := c
			if err := db.Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
			categoryIDs[c.Slug] = c.ID
		case err != nil:
			return fmt.Errorf("lookup category %s: %w", c.Slug, err)
		default:
			categoryIDs[c.Slug] = existing.ID
		}
	}

	for _, sp := range baseProducts() {
		p := sp.product
		var count int64
		if err := db.Model(&models.Product{}).Where("sku = ?", p.SKU).Count(&count).Error; err != nil {
			return fmt.Errorf("lookup product %s: %w", p.SKU, err)
		}
		if count > 0 {
			continue
		}
		p.CategoryID = categoryIDs[sp.category]
		p.Image = placeholderImage
		p.ShippingNote = "Free shipping on orders over $35"
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("seed product %s: %w", p.SKU, err)
		}
	}
	return nil
}
