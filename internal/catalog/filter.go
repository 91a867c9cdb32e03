package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 12
	maxPageSize     = 48
)

// PriceCeiling is the upper end of the price slider.
var PriceCeiling = decimal.NewFromInt(200)

// RatingOption is one "N Stars & Up" filter choice.
type RatingOption struct {
	Value int
	Label string
}

// RatingOptions lists the rating filters from 4 stars down to 1.
func RatingOptions() []RatingOption {
	out := make([]RatingOption, 0, 4)
	for v := 4; v >= 1; v-- {
		out = append(out, RatingOption{Value: v, Label: strconv.Itoa(v) + " Stars & Up"})
	}
	return out
}

// Filter narrows a product listing. Zero values mean "no restriction".
type Filter struct {
	CategoryIDs []uint
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
	MinRating   int
	Query       string
	Page        int
	PageSize    int
}

// HasCategory reports whether id is among the selected categories.
func (f Filter) HasCategory(id uint) bool {
	return slices.Contains(f.CategoryIDs, id)
}

func (f Filter) normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if f.MinPrice.IsNegative() {
		f.MinPrice = decimal.Zero
	}
	if f.MaxPrice.IsNegative() {
		f.MaxPrice = decimal.Zero
	}
	if !f.MaxPrice.IsZero() && f.MaxPrice.LessThan(f.MinPrice) {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		f.MinRating = 0
	}
	return f
}

// FilterFromQuery reads a filter from listing query parameters:
// category (repeatable), min_price, max_price, rating, q, page, limit.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{Query: strings.TrimSpace(q.Get("q"))}
	for _, raw := range q["category"] {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			f.CategoryIDs = append(f.CategoryIDs, uint(id))
		}
	}
	if d, err := decimal.NewFromString(q.Get("min_price")); err == nil {
		f.MinPrice = d
	}
	if d, err := decimal.NewFromString(q.Get("max_price")); err == nil {
		f.MaxPrice = d
	}
	f.MinRating, _ = strconv.Atoi(q.Get("rating"))
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("limit"))
	return f.normalized()
}

// QueryFor encodes the filter for pagination links, with page replaced.
func (f Filter) QueryFor(page int) string {
	v := url.Values{}
	for _, id := range f.CategoryIDs {
		v.Add("category", strconv.FormatUint(uint64(id), 10))
	}
	if !f.MinPrice.IsZero() {
		v.Set("min_price", f.MinPrice.String())
	}
	if !f.MaxPrice.IsZero() {
		v.Set("max_price", f.MaxPrice.String())
	}
	if f.MinRating > 0 {
		v.Set("rating", strconv.Itoa(f.MinRating))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.PageSize != 0 && f.PageSize != DefaultPageSize {
		v.Set("limit", strconv.Itoa(f.PageSize))
	}
	v.Set("page", strconv.Itoa(page))
	return v.Encode()
}
