package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/catalog"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/config"
	"github.com/diewo77/go-storefront/internal/db"
	"github.com/diewo77/go-storefront/internal/models"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/server"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires the storefront services behind a single http.Handler.
type App struct {
	handler  *server.Server
	checkout *checkout.Service
	carts    *cart.Store
	logger   *zap.Logger

	stopExpiry context.CancelFunc
	expiryDone chan struct{}
}

// NewApp builds the catalog, carts, checkout and notification services from cfg.
func NewApp(ctx context.Context, cfg config.Config, dbConn *gorm.DB, logger *zap.Logger) (*App, error) {
	view.SetDevMode(cfg.App.Dev)

	store := catalog.NewStore(dbConn)
	var cartOpts []cart.Option
	if cfg.App.SampleCart {
		sample, err := sampleProducts(ctx, store)
		if err != nil {
			return nil, err
		}
		cartOpts = append(cartOpts, cart.WithSample(sample...))
	}
	carts := cart.NewStore(store, cartOpts...)
	toasts := notify.NewCenter()

	var receipts checkout.ReceiptSender
	if cfg.Mail.Enabled() {
		receipts = notify.NewReceiptMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName, logger)
		logger.Info("order receipts enabled", zap.String("from", cfg.Mail.From))
	}
	processor := checkout.SimulatedProcessor{Delay: cfg.Checkout.ProcessingDelay}
	registry := checkout.NewRegistry(func(sess string) *checkout.Lifecycle {
		opts := []checkout.Option{checkout.WithLogger(logger.With(zap.String("session", sess)))}
		if receipts != nil {
			opts = append(opts, checkout.WithReceipts(receipts))
		}
		return checkout.NewLifecycle(processor, toasts.Sink(sess), opts...)
	})
	svc := checkout.NewService(carts, cfg.Pricing.Policy(), registry, logger)

	if !cfg.App.Dev && cfg.App.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("SESSION_SECRET not set; session cookies use the development secret")
	}
	sessions := session.NewManager(cfg.App.SessionSecret, !cfg.App.Dev)

	h := server.New(server.Deps{
		Catalog:  store,
		Carts:    carts,
		Checkout: svc,
		Toasts:   toasts,
		Sessions: sessions,
		Logger:   logger,
	})
	app := &App{handler: h, checkout: svc, carts: carts, logger: logger, expiryDone: make(chan struct{})}
	app.startCartExpiry(cfg.Cart)
	return app, nil
}

// startCartExpiry drops carts left unused for cfg.IdleTTL. A zero TTL or
// interval keeps carts for the life of the process.
func (a *App) startCartExpiry(cfg config.CartConfig) {
	if cfg.IdleTTL <= 0 || cfg.ExpireInterval <= 0 {
		close(a.expiryDone)
		a.stopExpiry = func() {}
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopExpiry = cancel
	go func() {
		defer close(a.expiryDone)
		a.carts.ExpireEvery(ctx, cfg.ExpireInterval, cfg.IdleTTL, a.logger)
	}()
}

// sampleProducts loads the products new carts start with.
func sampleProducts(ctx context.Context, store *catalog.Store) ([]*models.Product, error) {
	var out []*models.Product
	for _, sku := range []string{db.SampleEarbudsSKU, db.SampleBackpackSKU} {
		p, err := store.GetBySKU(ctx, sku)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Shutdown cancels in-flight submissions and closes notification streams.
func (a *App) Shutdown() {
	a.stopExpiry()
	<-a.expiryDone
	a.checkout.Shutdown()
	a.handler.Close()
	a.logger.Info("checkout submissions cancelled")
}
