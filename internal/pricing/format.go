package pricing

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as dollars with two decimals, e.g. "$117.68".
func FormatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// ShippingLabel renders a shipping fee, "Free" when zero.
func ShippingLabel(fee decimal.Decimal) string {
	if fee.IsZero() {
		return "Free"
	}
	return FormatUSD(fee)
}

// ItemsLabel renders "1 item" / "N items".
func ItemsLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}
