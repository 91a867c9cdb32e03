package checkout

import (
	"fmt"
	"time"

	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LineItemSupplier provides the current line items of a session's cart.
// The checkout only reads from it.
type LineItemSupplier interface {
	LineItems(session string) ([]pricing.LineItem, error)
}

// View is everything the checkout page needs to render.
type View struct {
	Items       []pricing.LineItem
	Summary     pricing.OrderSummary
	Processing  bool
	ButtonLabel string
}

// Service ties the cart, the pricing policy and the per-session lifecycles together.
type Service struct {
	supplier LineItemSupplier
	policy   pricing.Policy
	registry *Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(supplier LineItemSupplier, policy pricing.Policy, registry *Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{supplier: supplier, policy: policy, registry: registry, logger: logger, now: time.Now}
}

// Policy returns the pricing constants in use.
func (s *Service) Policy() pricing.Policy { return s.policy }

// View recomputes the order summary from the session's cart.
func (s *Service) View(session string) (View, error) {
	items, err := s.supplier.LineItems(session)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	summary, err := s.policy.Summarize(items)
	if err != nil {
		return View{}, fmt.Errorf("summarize cart: %w", err)
	}
	processing := false
	if l, ok := s.registry.Lookup(session); ok {
		processing = l.IsProcessing()
	}
	return View{
		Items:       items,
		Summary:     summary,
		Processing:  processing,
		ButtonLabel: ButtonLabel(processing, summary),
	}, nil
}

// IsProcessing reports whether the session has a submission in flight.
func (s *Service) IsProcessing(session string) bool {
	if l, ok := s.registry.Lookup(session); ok {
		return l.IsProcessing()
	}
	return false
}

// Submit validates form and starts a submission for the session's current cart.
// started is false when a submission was already in flight; the form is then not
// even validated. A *ValidationError is returned for invalid forms. No
// lifecycle is created unless a submission starts.
func (s *Service) Submit(session string, form Form) (order Order, started bool, err error) {
	if s.IsProcessing(session) {
		return Order{}, false, nil
	}
	now := s.now()
	if err := form.Validate(now); err != nil {
		return Order{}, false, err
	}
	items, err := s.supplier.LineItems(session)
	if err != nil {
		return Order{}, false, fmt.Errorf("load cart: %w", err)
	}
	summary, err := s.policy.Summarize(items)
	if err != nil {
		return Order{}, false, fmt.Errorf("summarize cart: %w", err)
	}
	order = Order{
		Reference:      uuid.NewString(),
		Email:          form.Email,
		Name:           form.FullName(),
		ShippingMethod: form.ShippingMethod,
		PaymentMethod:  form.PaymentMethod,
		Items:          items,
		Summary:        summary,
		SubmittedAt:    now,
	}
	for {
		// A lifecycle retired between For and start is closed; take a fresh one.
		var closed bool
		if started, closed = s.registry.For(session).start(order); !closed {
			break
		}
	}
	if !started {
		s.logger.Debug("duplicate checkout submission ignored", zap.String("session", session))
	}
	return order, started, nil
}

// End tears down the session's checkout.
func (s *Service) End(session string) { s.registry.Close(session) }

// Shutdown cancels every in-flight submission.
func (s *Service) Shutdown() { s.registry.CloseAll() }
