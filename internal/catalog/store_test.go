package catalog

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/diewo77/go-storefront/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewStore(conn)
}

func categoryID(t *testing.T, s *Store, name string) uint {
	t.Helper()
	cats, err := s.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not seeded", name)
	return 0
}

func TestListFilters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	electronics := categoryID(t, s, "Electronics")

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"everything", Filter{}, 12},
		{"category", Filter{CategoryIDs: []uint{electronics}}, 7},
		{"max price", Filter{MaxPrice: decimal.NewFromInt(30)}, 5},
		{"price range", Filter{MinPrice: decimal.NewFromInt(40), MaxPrice: decimal.NewFromInt(60)}, 4},
		{"rating", Filter{MinRating: 4}, 10},
		{"search", Filter{Query: "Wireless"}, 4},
		{"search strips symbols", Filter{Query: "mouse%';"}, 1},
		{"underscore is not a wildcard", Filter{Query: "_"}, 0},
		{"combined", Filter{CategoryIDs: []uint{electronics}, Query: "wireless", MaxPrice: decimal.NewFromInt(30)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if page.Total != tt.want {
				t.Fatalf("expected %d products got %d", tt.want, page.Total)
			}
			if int64(len(page.Items)) > page.Total {
				t.Fatalf("more items than total: %d > %d", len(page.Items), page.Total)
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	s := setupStore(t)
	page, err := s.List(context.Background(), Filter{Page: 3, PageSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pages != 3 || len(page.Items) != 2 {
		t.Fatalf("expected 3 pages and 2 items on the last, got pages=%d items=%d", page.Pages, len(page.Items))
	}
	if !page.HasPrev() || page.HasNext() {
		t.Fatalf("unexpected prev/next: %v %v", page.HasPrev(), page.HasNext())
	}
	if len(page.Numbers()) != 3 {
		t.Fatalf("numbers: %v", page.Numbers())
	}
	if page.Items[0].Category == nil {
		t.Fatal("category not preloaded")
	}
}

func TestListClampsPageToLast(t *testing.T) {
	s := setupStore(t)
	for _, n := range []int{4, math.MaxInt} {
		page, err := s.List(context.Background(), Filter{Page: n, PageSize: 5})
		if err != nil {
			t.Fatal(err)
		}
		if page.Page != 3 || len(page.Items) != 2 {
			t.Fatalf("page %d: expected the last page with 2 items, got page=%d items=%d", n, page.Page, len(page.Items))
		}
	}
}

func TestGetAndNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	p, err := s.GetBySKU(ctx, db.SampleEarbudsSKU)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Wireless Earbuds" || got.Category == nil || got.Category.Name != "Electronics" {
		t.Fatalf("unexpected product: %+v", got)
	}
	if _, err := s.Get(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if _, err := s.GetBySKU(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestFeatured(t *testing.T) {
	s := setupStore(t)
	items, err := s.Featured(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Wireless Earbuds", "Laptop Backpack", "Smart Watch", "Portable Charger"}
	if len(items) != len(want) {
		t.Fatalf("expected %d featured got %d", len(want), len(items))
	}
	for i, p := range items {
		if p.Name != want[i] {
			t.Fatalf("featured[%d] = %s, want %s", i, p.Name, want[i])
		}
	}
}

func TestFilterFromQuery(t *testing.T) {
	f := FilterFromQuery(url.Values{
		"category":  {"2", "x", "5"},
		"min_price": {"80"},
		"max_price": {"20"},
		"rating":    {"9"},
		"page":      {"-1"},
		"q":         {"  lamp "},
	})
	if len(f.CategoryIDs) != 2 || !f.HasCategory(5) || f.HasCategory(3) {
		t.Fatalf("categories: %v", f.CategoryIDs)
	}
	if f.MinPrice.String() != "20" || f.MaxPrice.String() != "80" {
		t.Fatalf("price bounds not swapped: %s..%s", f.MinPrice, f.MaxPrice)
	}
	if f.MinRating != 0 || f.Page != 1 || f.PageSize != DefaultPageSize || f.Query != "lamp" {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if got := f.QueryFor(2); got != "category=2&category=5&max_price=80&min_price=20&page=2&q=lamp" {
		t.Fatalf("QueryFor = %s", got)
	}
}

func TestRatingOptions(t *testing.T) {
	opts := RatingOptions()
	if len(opts) != 4 || opts[0].Label != "4 Stars & Up" || opts[3].Value != 1 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
