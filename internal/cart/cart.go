// Package cart keeps shopping carts in memory, keyed by session.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/diewo77/go-storefront/internal/models"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrOutOfStock is returned when a product with no stock is added.
var ErrOutOfStock = errors.New("product out of stock")

// ProductSource looks up catalog products.
type ProductSource interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
}

// Item is one cart line.
type Item struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
}

// LineTotal is unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func itemFor(p *models.Product, qty int) Item {
	return Item{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		UnitPrice: p.Price,
		Quantity:  qty,
		Stock:     p.Stock,
	}
}

type cart struct {
	items []Item
	seen  time.Time
}

func find(items []Item, id uint) int {
	for i, it := range items {
		if it.ProductID == id {
			return i
		}
	}
	return -1
}

// Store holds every session's cart. A session only gets an entry once it
// changes its cart; until then reads see the sample lines.
type Store struct {
	products ProductSource
	sample   []Item
	now      func() time.Time

	mu    sync.Mutex
	carts map[string]*cart
}

// Option configures a Store.
type Option func(*Store)

// WithSample starts every new cart with one unit of each product.
func WithSample(products ...*models.Product) Option {
	return func(s *Store) {
		for _, p := range products {
			if p != nil && p.InStock() {
				s.sample = append(s.sample, itemFor(p, 1))
			}
		}
	}
}

func NewStore(products ProductSource, opts ...Option) *Store {
	s := &Store{products: products, carts: map[string]*cart{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// lookup returns the session's stored cart and marks it as used. Callers hold s.mu.
func (s *Store) lookup(session string) (*cart, bool) {
	c, ok := s.carts[session]
	if ok {
		c.seen = s.now()
	}
	return c, ok
}

// cartFor returns the session's cart, creating it from the sample. Callers hold s.mu.
func (s *Store) cartFor(session string) *cart {
	c, ok := s.lookup(session)
	if !ok {
		c = &cart{items: append([]Item(nil), s.sample...), seen: s.now()}
		s.carts[session] = c
	}
	return c
}

// lines returns the session's lines without creating a cart. Callers hold s.mu.
func (s *Store) lines(session string) []Item {
	if c, ok := s.lookup(session); ok {
		return c.items
	}
	return s.sample
}

// mutable returns the cart to change for a line edit, or nil when the
// session has no such line. Callers hold s.mu.
func (s *Store) mutable(session string, productID uint) *cart {
	if find(s.lines(session), productID) < 0 {
		return nil
	}
	return s.cartFor(session)
}

// Add puts qty units of a product in the cart. The requested quantity is
// clamped to [1, stock] and the line total never exceeds the stock. It returns
// the number of units actually added and the resulting line.
func (s *Store) Add(ctx context.Context, session string, productID uint, qty int) (int, Item, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return 0, Item{}, fmt.Errorf("add to cart: %w", err)
	}
	if !p.InStock() {
		return 0, Item{}, ErrOutOfStock
	}
	qty = p.ClampQuantity(qty)

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartFor(session)
	if i := find(c.items, productID); i >= 0 {
		it := &c.items[i]
		added := max(min(qty, p.Stock-it.Quantity), 0)
		it.Quantity += added
		it.UnitPrice = p.Price
		it.Stock = p.Stock
		return added, *it, nil
	}
	it := itemFor(p, qty)
	c.items = append(c.items, it)
	return qty, it, nil
}

// Update sets a line's quantity, clamped to its stock. A quantity below 1
// removes the line.
func (s *Store) Update(session string, productID uint, qty int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.mutable(session, productID)
	if c == nil {
		return Item{}, false
	}
	i := find(c.items, productID)
	if qty < 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return Item{}, true
	}
	if qty > c.items[i].Stock {
		qty = c.items[i].Stock
	}
	c.items[i].Quantity = qty
	return c.items[i], true
}

// Remove drops a line. It reports whether the line existed.
func (s *Store) Remove(session string, productID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.mutable(session, productID)
	if c == nil {
		return false
	}
	i := find(c.items, productID)
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items(session string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.lines(session)...)
}

// Count is the total number of units, shown on the header badge.
func (s *Store) Count(session string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.lines(session) {
		n += it.Quantity
	}
	return n
}

// LineItems converts the cart for pricing.
func (s *Store) LineItems(session string) ([]pricing.LineItem, error) {
	items := s.Items(session)
	out := make([]pricing.LineItem, 0, len(items))
	for _, it := range items {
		li, err := pricing.NewLineItem(strconv.FormatUint(uint64(it.ProductID), 10), it.UnitPrice, it.Quantity)
		if err != nil {
			return nil, fmt.Errorf("cart line %d: %w", it.ProductID, err)
		}
		out = append(out, li)
	}
	return out, nil
}

// Len returns the number of stored carts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Expire forgets every cart unused for longer than idle and returns how many
// were dropped.
func (s *Store) Expire(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for sess, c := range s.carts {
		if c.seen.Before(cutoff) {
			delete(s.carts, sess)
			n++
		}
	}
	return n
}

// ExpireEvery runs Expire on each tick of every until ctx is done.
func (s *Store) ExpireEvery(ctx context.Context, every, idle time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Expire(idle); n > 0 {
				logger.Debug("expired idle carts", zap.Int("count", n))
			}
		}
	}
}
