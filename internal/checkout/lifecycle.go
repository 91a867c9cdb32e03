// Package checkout runs the order submission lifecycle: form validation,
// the idle/processing state machine and the completion notification.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/go-storefront/internal/pricing"
	"go.uber.org/zap"
)

// State of a checkout submission.
type State int

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	if s == Processing {
		return "processing"
	}
	return "idle"
}

// Order is what gets handed to the Processor.
type Order struct {
	Reference      string
	Email          string
	Name           string
	ShippingMethod string
	PaymentMethod  string
	Items          []pricing.LineItem
	Summary        pricing.OrderSummary
	SubmittedAt    time.Time
}

// Processor completes an order. Returning nil means the order was placed.
type Processor interface {
	Process(ctx context.Context, order Order) error
}

// ReceiptSender delivers an order confirmation after a successful submission.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, order Order) error
}

// SimulatedProcessor stands in for a payment backend: it waits Delay and succeeds.
type SimulatedProcessor struct {
	Delay time.Duration
}

func (p SimulatedProcessor) Process(ctx context.Context, _ Order) error {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lifecycle is the per-checkout idle/processing state machine.
// At most one submission is in flight; Close cancels it without notifying.
type Lifecycle struct {
	processor Processor
	notifier  Notifier
	receipts  ReceiptSender
	logger    *zap.Logger
	// onIdle runs after each completion, once the notification is out.
	onIdle func(*Lifecycle)

	mu     sync.Mutex
	state  State
	task   *Task
	closed bool
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithReceipts sends a receipt after each successful submission.
func WithReceipts(r ReceiptSender) Option {
	return func(l *Lifecycle) { l.receipts = r }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLifecycle(p Processor, n Notifier, opts ...Option) *Lifecycle {
	l := &Lifecycle{processor: p, notifier: n, logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsProcessing reports whether a submission is in flight.
func (l *Lifecycle) IsProcessing() bool { return l.State() == Processing }

// Submit starts processing order. It returns false, doing nothing, when a
// submission is already in flight or the lifecycle has been closed.
func (l *Lifecycle) Submit(order Order) bool {
	started, _ := l.start(order)
	return started
}

// start is Submit that also reports whether the lifecycle was closed.
func (l *Lifecycle) start(order Order) (started, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false, true
	}
	if l.state == Processing {
		return false, false
	}
	l.state = Processing
	l.logger.Info("checkout processing",
		zap.String("reference", order.Reference),
		zap.String("total", order.Summary.Total.StringFixed(2)))
	l.task = Defer(context.Background(), func(ctx context.Context) {
		l.complete(ctx, order, l.processor.Process(ctx, order))
		if l.onIdle != nil {
			l.onIdle(l)
		}
	})
	return true, false
}

// retire closes an idle lifecycle. It reports false when a submission is in flight.
func (l *Lifecycle) retire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Processing {
		return false
	}
	l.closed = true
	return true
}

func (l *Lifecycle) complete(ctx context.Context, order Order, err error) {
	l.mu.Lock()
	l.state = Idle
	l.mu.Unlock()

	if ctx.Err() != nil {
		l.logger.Info("checkout cancelled", zap.String("reference", order.Reference))
		return
	}
	if err != nil {
		l.logger.Warn("checkout failed",
			zap.String("reference", order.Reference),
			zap.Bool("retryable", Retryable(err)),
			zap.Error(err))
		l.notifier.Notify(failureNotification(err))
		return
	}
	l.logger.Info("checkout completed", zap.String("reference", order.Reference))
	l.notifier.Notify(OrderPlaced)
	if l.receipts != nil {
		if rerr := l.receipts.SendReceipt(ctx, order); rerr != nil {
			l.logger.Error("receipt not sent", zap.String("reference", order.Reference), zap.Error(rerr))
		}
	}
}

// Wait blocks until the latest submission, if any, has finished and its
// notification has been delivered.
func (l *Lifecycle) Wait() {
	l.mu.Lock()
	t := l.task
	l.mu.Unlock()
	if t != nil {
		t.Wait()
	}
}

// Close cancels the in-flight submission and rejects further ones.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	l.closed = true
	t := l.task
	l.mu.Unlock()
	if t != nil {
		t.Cancel()
		t.Wait()
	}
}
