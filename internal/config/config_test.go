package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "FREE_SHIPPING_THRESHOLD", "TAX_RATE", "CHECKOUT_DELAY", "SENDGRID_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Fatalf("port: got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver: got %s", cfg.Database.Driver)
	}
	p := cfg.Pricing.Policy()
	if p.FreeShippingThreshold.StringFixed(2) != "35.00" || p.FlatShippingFee.StringFixed(2) != "5.99" || p.TaxRate.String() != "0.07" {
		t.Fatalf("pricing defaults: %+v", p)
	}
	if cfg.Checkout.ProcessingDelay != 2*time.Second {
		t.Fatalf("delay: got %s", cfg.Checkout.ProcessingDelay)
	}
	if cfg.Cart.IdleTTL != 24*time.Hour || cfg.Cart.ExpireInterval != 10*time.Minute {
		t.Fatalf("cart expiry defaults: %+v", cfg.Cart)
	}
	if cfg.Mail.Enabled() {
		t.Fatal("mail should be disabled without an API key")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "50")
	t.Setenv("TAX_RATE", "-1")
	t.Setenv("CHECKOUT_DELAY", "250")
	t.Setenv("SAMPLE_CART", "yes")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
	t.Setenv("CART_IDLE_TTL", "2h")

	cfg := Load()
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "postgres" {
		t.Fatalf("unexpected server/db config: %+v %+v", cfg.Server, cfg.Database)
	}
	if got := cfg.Pricing.FreeShippingThreshold.StringFixed(2); got != "50.00" {
		t.Fatalf("threshold: got %s", got)
	}
	if got := cfg.Pricing.TaxRate.String(); got != "0.07" {
		t.Fatalf("negative tax rate should fall back to default, got %s", got)
	}
	if cfg.Checkout.ProcessingDelay != 250*time.Millisecond {
		t.Fatalf("delay: got %s", cfg.Checkout.ProcessingDelay)
	}
	if cfg.Cart.IdleTTL != 2*time.Hour {
		t.Fatalf("cart ttl: got %s", cfg.Cart.IdleTTL)
	}
	if !cfg.App.SampleCart || !cfg.Mail.Enabled() {
		t.Fatalf("flags: %+v %+v", cfg.App, cfg.Mail)
	}
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}
	if got := d.URL(); got != "postgres://u:p@db:5432/shop?sslmode=disable" {
		t.Fatalf("URL() = %s", got)
	}
	if got := d.DSN(); got != "host=db port=5432 user=u password=p dbname=shop sslmode=disable" {
		t.Fatalf("DSN() = %s", got)
	}
}
