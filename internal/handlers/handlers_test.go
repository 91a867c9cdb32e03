package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/catalog"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/db"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/view"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Seeded product IDs used across the tests.
const (
	earbudsID     = 1 // 49.99, stock 15
	phoneHolderID = 3 // 19.99, stock 40
	backpackID    = 5 // 59.99, stock 12
)

// gateProcessor holds each submission until the test releases it.
type gateProcessor struct {
	release chan error
}

func (g *gateProcessor) Process(ctx context.Context, _ checkout.Order) error {
	select {
	case err := <-g.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type testApp struct {
	catalog  *catalog.Store
	carts    *cart.Store
	toasts   *notify.Center
	registry *checkout.Registry
	svc      *checkout.Service
	gate     *gateProcessor
	streams  *NotificationHandler
	mux      *http.ServeMux
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
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
	return conn
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	view.ResetForTests()
	t.Cleanup(view.ResetForTests)

	logger := zap.NewNop()
	a := &testApp{
		catalog: catalog.NewStore(setupTestDB(t)),
		toasts:  notify.NewCenter(),
		gate:    &gateProcessor{release: make(chan error, 1)},
	}
	a.carts = cart.NewStore(a.catalog)
	a.registry = checkout.NewRegistry(func(sess string) *checkout.Lifecycle {
		return checkout.NewLifecycle(a.gate, a.toasts.Sink(sess))
	})
	a.svc = checkout.NewService(a.carts, pricing.DefaultPolicy(), a.registry, logger)
	t.Cleanup(a.svc.Shutdown)

	ph := NewProductHandler(a.catalog, logger)
	ch := NewCartHandler(a.carts, a.toasts, pricing.DefaultPolicy(), logger)
	co := NewCheckoutHandler(a.svc, a.carts, logger)
	a.streams = NewNotificationHandler(a.toasts, logger)
	t.Cleanup(a.streams.Close)

	a.mux = http.NewServeMux()
	a.mux.HandleFunc("GET /{$}", ph.Home)
	a.mux.HandleFunc("GET /products", ph.List)
	a.mux.HandleFunc("GET /products/{id}", ph.View)
	a.mux.HandleFunc("GET /cart", ch.Show)
	a.mux.HandleFunc("POST /cart/items", ch.Add)
	a.mux.HandleFunc("POST /cart/items/{id}", ch.Update)
	a.mux.HandleFunc("POST /cart/items/{id}/remove", ch.Remove)
	a.mux.HandleFunc("GET /checkout", co.Show)
	a.mux.HandleFunc("POST /checkout", co.Submit)
	a.mux.HandleFunc("GET /checkout/status", co.Status)
	a.mux.HandleFunc("POST /checkout/cancel", co.Cancel)
	a.mux.HandleFunc("GET /notifications", a.streams.Poll)
	a.mux.HandleFunc("GET /notifications/ws", a.streams.Stream)
	return a
}

// withSession runs h with sid as the request's session.
func withSession(sid string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), sid)))
	})
}

func (a *testApp) serve(sid string, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	withSession(sid, a.mux).ServeHTTP(w, r)
	return w
}

func (a *testApp) getJSON(sid, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "application/json")
	return a.serve(sid, r)
}

func (a *testApp) getHTML(sid, target string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "text/html")
	return a.serve(sid, r)
}

func (a *testApp) postJSON(sid, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	return a.serve(sid, r)
}

func formRequest(target string, vals url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(vals.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html")
	return r
}

func (a *testApp) postForm(sid, target string, vals url.Values) *httptest.ResponseRecorder {
	return a.serve(sid, formRequest(target, vals))
}

func (a *testApp) addSampleCart(t *testing.T, sid string) {
	t.Helper()
	for _, id := range []uint{earbudsID, backpackID} {
		if _, _, err := a.carts.Add(context.Background(), sid, id, 1); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
}
