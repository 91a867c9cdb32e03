package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-storefront/internal/models"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errMissing = errors.New("missing")

type fakeCatalog map[uint]*models.Product

func (f fakeCatalog) Get(_ context.Context, id uint) (*models.Product, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, errMissing
}

func product(id uint, price string, stock int) *models.Product {
	return &models.Product{ID: id, Name: fmt.Sprintf("Product %d", id), Price: decimal.RequireFromString(price), Stock: stock}
}

func newCatalog() fakeCatalog {
	return fakeCatalog{
		1: product(1, "49.99", 15),
		5: product(5, "59.99", 12),
		7: product(7, "24.99", 2),
		9: product(9, "9.99", 0),
	}
}

func TestAddClampsToStock(t *testing.T) {
	s := NewStore(newCatalog())
	ctx := context.Background()

	added, it, err := s.Add(ctx, "s", 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, it.Quantity)

	added, it, err = s.Add(ctx, "s", 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "line already holds the whole stock")
	assert.Equal(t, 2, it.Quantity)

	added, _, err = s.Add(ctx, "s", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, added, "quantity below 1 is raised to 1")
	assert.Equal(t, 3, s.Count("s"))
}

func TestAddErrors(t *testing.T) {
	s := NewStore(newCatalog())
	_, _, err := s.Add(context.Background(), "s", 9, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
	_, _, err = s.Add(context.Background(), "s", 42, 1)
	assert.ErrorIs(t, err, errMissing)
	assert.Empty(t, s.Items("s"))
}

func TestUpdateAndRemove(t *testing.T) {
	s := NewStore(newCatalog())
	ctx := context.Background()
	_, _, err := s.Add(ctx, "s", 1, 1)
	require.NoError(t, err)
	_, _, err = s.Add(ctx, "s", 5, 1)
	require.NoError(t, err)

	it, ok := s.Update("s", 1, 99)
	require.True(t, ok)
	assert.Equal(t, 15, it.Quantity)

	_, ok = s.Update("s", 1, 0)
	assert.True(t, ok)
	assert.Len(t, s.Items("s"), 1)

	_, ok = s.Update("s", 1, 2)
	assert.False(t, ok)

	assert.True(t, s.Remove("s", 5))
	assert.False(t, s.Remove("s", 5))
	assert.Zero(t, s.Count("s"))
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(newCatalog())
	_, _, err := s.Add(context.Background(), "a", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count("a"))
	assert.Zero(t, s.Count("b"))
}

func TestSampleCartPricesLikeTheCheckoutExample(t *testing.T) {
	cat := newCatalog()
	s := NewStore(cat, WithSample(cat[1], cat[5], cat[9]))

	items := s.Items("fresh")
	require.Len(t, items, 2, "out of stock samples are skipped")
	assert.Equal(t, uint(1), items[0].ProductID)

	lines, err := s.LineItems("fresh")
	require.NoError(t, err)
	summary, err := pricing.DefaultPolicy().Summarize(lines)
	require.NoError(t, err)
	r := summary.Rounded()
	assert.Equal(t, "109.98", r.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", r.ShippingFee.StringFixed(2))
	assert.Equal(t, "7.70", r.TaxAmount.StringFixed(2))
	assert.Equal(t, "117.68", r.Total.StringFixed(2))

	assert.Zero(t, s.Len(), "reading the sample stores nothing")

	require.True(t, s.Remove("fresh", 1))
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.Items("fresh"), 1)
	assert.Len(t, s.Items("other"), 2, "other sessions still see the sample")

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, s.Expire(time.Minute))
	assert.Len(t, s.Items("fresh"), 2, "an expired session starts over")
}

func TestReadsDoNotStoreCarts(t *testing.T) {
	cat := newCatalog()
	s := NewStore(cat, WithSample(cat[1], cat[5]))
	for i := range 1000 {
		sess := fmt.Sprintf("anon-%d", i)
		assert.Equal(t, 2, s.Count(sess))
		_ = s.Items(sess)
		_, ok := s.Update(sess, 42, 1)
		assert.False(t, ok)
		assert.False(t, s.Remove(sess, 42))
	}
	assert.Zero(t, s.Len())
}

func TestExpireDropsIdleCarts(t *testing.T) {
	s := NewStore(newCatalog())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, err := s.Add(ctx, "old", 1, 1)
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	_, _, err = s.Add(ctx, "new", 1, 1)
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Expire(time.Hour))
	assert.Zero(t, s.Count("old"))
	assert.Equal(t, 1, s.Count("new"), "reading keeps a cart alive")

	now = now.Add(59 * time.Minute)
	assert.Zero(t, s.Expire(time.Hour))
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Expire(time.Hour))
	assert.Zero(t, s.Len())
}

func TestExpireEveryStopsWithContext(t *testing.T) {
	s := NewStore(newCatalog())
	_, _, err := s.Add(context.Background(), "s", 1, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.ExpireEvery(ctx, time.Millisecond, 0, zap.NewNop())
		close(done)
	}()
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestLineTotal(t *testing.T) {
	it := Item{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 2}
	assert.Equal(t, "39.98", it.LineTotal().StringFixed(2))
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStore(newCatalog())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.Add(context.Background(), "s", 1, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 15, s.Count("s"))
}
