// Command render prints a storefront page rendered against a seeded in-memory
// catalog, for checking template changes without running the server.
//
//	go run ./cmd/render -path /products?limit=4
package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/catalog"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/config"
	"github.com/diewo77/go-storefront/internal/db"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/diewo77/go-storefront/internal/server"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/view"
	"go.uber.org/zap"
)

func main() {
	path := flag.String("path", "/", "page to render")
	theme := flag.String("theme", "light", "theme preference")
	templates := flag.String("templates", "templates", "templates directory")
	flag.Parse()
	os.Exit(run(*path, *theme, *templates))
}

func run(path, theme, templates string) int {
	view.SetBaseDir(templates)

	conn, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", SQLitePath: "file:render?mode=memory&cache=shared"}, zap.NewNop())
	if err != nil {
		return fail("connect: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fail("migrate: %v", err)
	}
	if err := db.Seed(conn); err != nil {
		return fail("seed: %v", err)
	}

	store := catalog.NewStore(conn)
	carts := cart.NewStore(store)
	toasts := notify.NewCenter()
	registry := checkout.NewRegistry(func(sess string) *checkout.Lifecycle {
		return checkout.NewLifecycle(checkout.SimulatedProcessor{}, toasts.Sink(sess))
	})
	svc := checkout.NewService(carts, pricing.DefaultPolicy(), registry, nil)
	defer svc.Shutdown()

	srv := server.New(server.Deps{
		Catalog:  store,
		Carts:    carts,
		Checkout: svc,
		Toasts:   toasts,
		Sessions: session.NewManager("", false),
	})
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: theme})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code >= http.StatusBadRequest {
		fmt.Fprintf(os.Stderr, "status %d\n", w.Code)
	}
	fmt.Print(w.Body.String())
	if w.Code >= http.StatusInternalServerError {
		return 3
	}
	return 0
}

func fail(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 2
}
