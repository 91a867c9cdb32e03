package checkout

import (
	"errors"

	"github.com/diewo77/go-storefront/internal/pricing"
)

// Variant selects how a notification is styled.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a user-facing (title, description) pair.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Notifier receives notifications produced by a submission.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// OrderPlaced is emitted once per successful submission.
var OrderPlaced = Notification{
	Title:       "Order placed successfully!",
	Description: "You will receive a confirmation email shortly.",
	Variant:     VariantDefault,
}

func failureNotification(err error) Notification {
	n := Notification{Variant: VariantDestructive}
	switch {
	case errors.Is(err, ErrPaymentDeclined):
		n.Title = "Payment declined"
		n.Description = "Your card was declined. Check the details or use another payment method."
	case errors.Is(err, ErrPaymentGateway):
		n.Title = "Payment failed"
		n.Description = "We could not reach the payment provider. Please try again."
	case errors.Is(err, ErrNetwork):
		n.Title = "Connection problem"
		n.Description = "Your order was not placed. Check your connection and try again."
	default:
		n.Title = "Something went wrong"
		n.Description = "Your order was not placed. Please try again."
	}
	return n
}

// ButtonLabel is the submit control text for the given state.
func ButtonLabel(processing bool, summary pricing.OrderSummary) string {
	if processing {
		return "Processing..."
	}
	return "Pay " + pricing.FormatUSD(summary.Total)
}
