package server

import (
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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	*Server
	toasts   *notify.Center
	carts    *cart.Store
	registry *checkout.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	view.ResetForTests()
	t.Cleanup(view.ResetForTests)

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := catalog.NewStore(conn)
	carts := cart.NewStore(store)
	toasts := notify.NewCenter()
	registry := checkout.NewRegistry(func(sess string) *checkout.Lifecycle {
		return checkout.NewLifecycle(checkout.SimulatedProcessor{}, toasts.Sink(sess))
	})
	svc := checkout.NewService(carts, pricing.DefaultPolicy(), registry, nil)
	t.Cleanup(svc.Shutdown)

	srv := New(Deps{
		Catalog:   store,
		Carts:     carts,
		Checkout:  svc,
		Toasts:    toasts,
		Sessions:  session.NewManager("test-secret", false),
		StaticDir: "../../static",
	})
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, toasts: toasts, carts: carts, registry: registry}
}

func (s *testServer) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"status":"ok"`) {
			t.Fatalf("%s: unexpected body %s", path, w.Body.String())
		}
	}
}

func TestSessionCookieIssuedAndReused(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}

	// Add to cart as a form post with the cookie, then see the badge count.
	form := url.Values{"product_id": {"1"}, "quantity": {"2"}}
	r := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookies[0])
	w = s.do(r)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d: %s", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("a valid cookie should not be reissued")
	}

	r = httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(cookies[0])
	body := s.do(r).Body.String()
	for _, want := range []string{`data-cart-count>2<`, "Added to cart", "2 x Wireless Earbuds added to your cart"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in cart page", want)
		}
	}

	// The toast was rendered once and is gone from the queue.
	r = httptest.NewRequest(http.MethodGet, "/cart", nil)
	r.AddCookie(cookies[0])
	if strings.Contains(s.do(r).Body.String(), "added to your cart") {
		t.Fatal("toast rendered twice")
	}
}

func TestThemePreference(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/products?theme=dark", nil))
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatal("expected dark theme")
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "does not exist") {
		t.Fatalf("expected not found page, got %s", w.Body.String())
	}

	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.Header.Set("Accept", "application/json")
	w = s.do(r)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("unexpected JSON 404: %d %s", w.Code, w.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/static/img/placeholder.svg", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Fatal("expected the placeholder image")
	}
}

func TestAnonymousRequestsKeepNoState(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 200; i++ {
		if w := s.do(httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", w.Code)
		}
		r := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("first_name="))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if w := s.do(r); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", w.Code)
		}
	}
	if n := s.registry.Len(); n != 0 {
		t.Fatalf("invalid checkouts left %d lifecycles", n)
	}
	if n := s.carts.Len(); n != 0 {
		t.Fatalf("page views stored %d carts", n)
	}
}
