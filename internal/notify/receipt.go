package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// MailClient is the part of the SendGrid client the mailer uses.
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// ReceiptMailer emails an order confirmation through SendGrid.
type ReceiptMailer struct {
	client   MailClient
	from     string
	fromName string
	logger   *zap.Logger
}

// NewReceiptMailer builds a mailer backed by the SendGrid API.
func NewReceiptMailer(apiKey, from, fromName string, logger *zap.Logger) *ReceiptMailer {
	return NewReceiptMailerWithClient(sendgrid.NewSendClient(apiKey), from, fromName, logger)
}

func NewReceiptMailerWithClient(client MailClient, from, fromName string, logger *zap.Logger) *ReceiptMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptMailer{client: client, from: from, fromName: fromName, logger: logger}
}

// SendReceipt implements checkout.ReceiptSender.
func (m *ReceiptMailer) SendReceipt(ctx context.Context, order checkout.Order) error {
	if order.Email == "" {
		return errors.New("receipt: order has no email")
	}
	msg := BuildReceipt(m.from, m.fromName, order)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	m.logger.Info("receipt sent",
		zap.String("reference", order.Reference),
		zap.Int("status", resp.StatusCode))
	return nil
}

// ReceiptSubject is the subject line of the confirmation email.
func ReceiptSubject(order checkout.Order) string {
	return "Your BBI4 order " + shortRef(order.Reference)
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return "#" + strings.ToUpper(ref[:8])
	}
	return "#" + strings.ToUpper(ref)
}

// BuildReceipt renders the confirmation email for order.
func BuildReceipt(from, fromName string, order checkout.Order) *mail.SGMailV3 {
	s := order.Summary.Rounded()
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nThanks for your order %s.\n\n", order.Name, shortRef(order.Reference))
	for _, li := range order.Items {
		fmt.Fprintf(&text, "  item %s  x%d  %s\n", li.ID, li.Quantity, pricing.FormatUSD(li.LineTotal()))
	}
	fmt.Fprintf(&text, "\nSubtotal: %s\nShipping: %s\nTax: %s\nTotal: %s\n",
		pricing.FormatUSD(s.Subtotal),
		pricing.ShippingLabel(s.ShippingFee),
		pricing.FormatUSD(s.TaxAmount),
		pricing.FormatUSD(s.Total))

	plain := text.String()
	htmlBody := "<pre>" + html.EscapeString(plain) + "</pre>"
	return mail.NewSingleEmail(
		mail.NewEmail(fromName, from),
		ReceiptSubject(order),
		mail.NewEmail(order.Name, order.Email),
		plain,
		htmlBody,
	)
}
