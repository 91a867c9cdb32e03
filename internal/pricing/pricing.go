// Package pricing derives order totals (subtotal, shipping, tax, total) from cart line items.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidLineItem is returned when a line item breaks the price/quantity/identifier rules.
var ErrInvalidLineItem = errors.New("invalid line item")

// LineItem is one product entry in an order.
type LineItem struct {
	ID        string
	UnitPrice decimal.Decimal
	Quantity  int
}

// NewLineItem validates and builds a line item.
func NewLineItem(id string, unitPrice decimal.Decimal, quantity int) (LineItem, error) {
	li := LineItem{ID: strings.TrimSpace(id), UnitPrice: unitPrice, Quantity: quantity}
	if err := li.validate(); err != nil {
		return LineItem{}, err
	}
	return li, nil
}

func (li LineItem) validate() error {
	if li.ID == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidLineItem)
	}
	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: %s has negative unit price %s", ErrInvalidLineItem, li.ID, li.UnitPrice)
	}
	if li.Quantity <= 0 {
		return fmt.Errorf("%w: %s has non-positive quantity %d", ErrInvalidLineItem, li.ID, li.Quantity)
	}
	return nil
}

// LineTotal returns unit price times quantity, unrounded.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Policy holds the fixed constants the calculation depends on.
type Policy struct {
	// FreeShippingThreshold: subtotals strictly above it ship for free.
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	// ExpressShippingFee is shown on the checkout form only; Summarize never charges it.
	ExpressShippingFee decimal.Decimal
	TaxRate            decimal.Decimal
}

// DefaultPolicy returns the storefront's standard pricing constants.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: decimal.RequireFromString("35.00"),
		FlatShippingFee:       decimal.RequireFromString("5.99"),
		ExpressShippingFee:    decimal.RequireFromString("12.99"),
		TaxRate:               decimal.RequireFromString("0.07"),
	}
}

// OrderSummary is the derived pricing breakdown. Amounts are exact; round only when displaying.
type OrderSummary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

// Summarize computes the order summary for items.
// An empty list still pays the flat shipping fee since 0 is not above the threshold.
func (p Policy) Summarize(items []LineItem) (OrderSummary, error) {
	seen := make(map[string]struct{}, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		if err := it.validate(); err != nil {
			return OrderSummary{}, err
		}
		if _, dup := seen[it.ID]; dup {
			return OrderSummary{}, fmt.Errorf("%w: duplicate identifier %s", ErrInvalidLineItem, it.ID)
		}
		seen[it.ID] = struct{}{}
		subtotal = subtotal.Add(it.LineTotal())
	}
	shipping := p.FlatShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate)
	return OrderSummary{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		TaxAmount:   tax,
		Total:       subtotal.Add(shipping).Add(tax),
		ItemCount:   len(items),
	}, nil
}

// FreeShipping reports whether the order ships for free.
func (s OrderSummary) FreeShipping() bool { return s.ShippingFee.IsZero() }

// Rounded returns a copy with every amount rounded to cents, for display and JSON output.
// Total is rounded from the exact sum, never re-added from rounded parts.
func (s OrderSummary) Rounded() OrderSummary {
	return OrderSummary{
		Subtotal:    s.Subtotal.Round(2),
		ShippingFee: s.ShippingFee.Round(2),
		TaxAmount:   s.TaxAmount.Round(2),
		Total:       s.Total.Round(2),
		ItemCount:   s.ItemCount,
	}
}
