// Package catalog queries the product catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/diewo77/go-storefront/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

var unsafeSearch = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Page is one page of a filtered product listing.
type Page struct {
	Items    []models.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Pages    int              `json:"pages"`
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.Pages }
func (p Page) PrevPage() int { return p.Page - 1 }
func (p Page) NextPage() int { return p.Page + 1 }

// Numbers lists every page number, for the pagination bar.
func (p Page) Numbers() []int {
	out := make([]int, p.Pages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Store reads products and categories with gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// List returns the page of products matching f.
func (s *Store) List(ctx context.Context, f Filter) (Page, error) {
	f = f.normalized()
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if len(f.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", f.CategoryIDs)
	}
	if !f.MinPrice.IsZero() {
		q = q.Where("price >= ?", f.MinPrice.InexactFloat64())
	}
	if !f.MaxPrice.IsZero() {
		q = q.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}
	if term := strings.TrimSpace(unsafeSearch.ReplaceAllString(f.Query, "")); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where(`lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}
	page := Page{Total: total, Page: f.Page, PageSize: f.PageSize}
	page.Pages = int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	if page.Pages == 0 {
		page.Pages = 1
	}
	if page.Page > page.Pages {
		page.Page = page.Pages
	}
	if err := q.Session(&gorm.Session{}).Preload("Category").
		Order("id").
		Limit(f.PageSize).
		Offset((page.Page - 1) * f.PageSize).
		Find(&page.Items).Error; err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// Get returns one product with its category.
func (s *Store) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// GetBySKU returns the product with the given stock keeping unit.
func (s *Store) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", sku, err)
	}
	return &p, nil
}

// Featured returns up to n products for the home page, badged ones first.
func (s *Store) Featured(ctx context.Context, n int) ([]models.Product, error) {
	var out []models.Product
	err := s.db.WithContext(ctx).
		Order("CASE WHEN badge IS NULL OR badge = '' THEN 1 ELSE 0 END").
		Order("rating DESC").
		Order("id").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	return out, nil
}

// Categories returns every category by name.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
