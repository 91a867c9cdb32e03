package server

import (
	"net/http"
	"path/filepath"

	"github.com/diewo77/go-storefront/httpx"
	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/catalog"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/handlers"
	"github.com/diewo77/go-storefront/internal/middleware"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/view"
	"go.uber.org/zap"
)

// Deps are the services the routes are built from.
type Deps struct {
	Catalog  *catalog.Store
	Carts    *cart.Store
	Checkout *checkout.Service
	Toasts   *notify.Center
	Sessions *session.Manager
	Logger   *zap.Logger
	// StaticDir defaults to "static".
	StaticDir string
}

// Server is the root handler plus the resources that must be released on shutdown.
type Server struct {
	http.Handler
	streams *handlers.NotificationHandler
}

// Close ends open notification streams.
func (s *Server) Close() { s.streams.Close() }

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.StaticDir == "" {
		d.StaticDir = "static"
	}
	mux := http.NewServeMux()

	view.SetThemeResolver(middleware.ThemeFrom)
	view.SetCartCountResolver(func(r *http.Request) int { return d.Carts.Count(session.ID(r)) })
	view.SetToastResolver(func(r *http.Request) any { return d.Toasts.Drain(session.ID(r)) })

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Catalog.Ping(r.Context()); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ph := handlers.NewProductHandler(d.Catalog, d.Logger)
	mux.HandleFunc("GET /{$}", ph.Home)
	mux.HandleFunc("GET /products", ph.List)
	mux.HandleFunc("GET /products/{id}", ph.View)

	ch := handlers.NewCartHandler(d.Carts, d.Toasts, d.Checkout.Policy(), d.Logger)
	mux.HandleFunc("GET /cart", ch.Show)
	mux.HandleFunc("POST /cart/items", ch.Add)
	mux.HandleFunc("POST /cart/items/{id}", ch.Update)
	mux.HandleFunc("POST /cart/items/{id}/remove", ch.Remove)

	co := handlers.NewCheckoutHandler(d.Checkout, d.Carts, d.Logger)
	mux.HandleFunc("GET /checkout", co.Show)
	mux.HandleFunc("POST /checkout", co.Submit)
	mux.HandleFunc("GET /checkout/status", co.Status)
	mux.HandleFunc("POST /checkout/cancel", co.Cancel)

	nh := handlers.NewNotificationHandler(d.Toasts, d.Logger)
	mux.HandleFunc("GET /notifications", nh.Poll)
	mux.HandleFunc("GET /notifications/ws", nh.Stream)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Clean(d.StaticDir)))))

	// Everything else is an unknown page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		if err := view.RenderStatus(w, r, http.StatusNotFound, "not_found.html", map[string]any{
			"Message": "The page you are looking for does not exist.",
		}); err != nil {
			http.NotFound(w, r)
		}
	})

	var h http.Handler = mux
	h = d.Sessions.Middleware(h)
	h = middleware.Prefs(h)
	h = middleware.Logging(d.Logger)(h)
	h = middleware.Recover(d.Logger)(h)
	return &Server{Handler: h, streams: nh}
}
