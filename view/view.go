package view

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
	assetManifest     map[string]string
	assetManifestOnce sync.Once
	devMode           = os.Getenv("DEV") == "1"

	themeResolver     = func(_ *http.Request) string { return "system" }
	cartCountResolver = func(_ *http.Request) int { return 0 }
	// toastResolver hands the layout the toasts waiting for the request's session.
	toastResolver = func(_ *http.Request) any { return nil }
)

// Shared partials parsed alongside every page.
var partials = []string{
	"header.html",
	"footer.html",
	"toasts.html",
	"product-card.html",
	"field-text.html",
	"stars.html",
}

// SetThemeResolver allows the host app to provide a custom theme resolver.
func SetThemeResolver(f func(*http.Request) string) {
	if f != nil {
		themeResolver = f
	}
}

// SetCartCountResolver sets the callback behind the header cart badge.
func SetCartCountResolver(f func(*http.Request) int) {
	if f != nil {
		cartCountResolver = f
	}
}

// SetToastResolver sets the callback returning the toasts to render in the layout.
func SetToastResolver(f func(*http.Request) any) {
	if f != nil {
		toastResolver = f
	}
}

// SetDevMode disables the template cache and reloads the asset manifest per request.
func SetDevMode(dev bool) { devMode = dev }

// layoutBase walks upward from a template path to find the directory that contains layout.html.
// If none is found, it returns the template's own directory.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		lp := filepath.Join(d, "layout.html")
		if fi, err := os.Stat(lp); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d { // reached filesystem root
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the template helpers. Per-request values (theme) are bound to r.
func Funcs(r *http.Request) template.FuncMap {
	theme := themeResolver(r)
	return template.FuncMap{
		"theme": func() string { return theme },
		"year":  func() int { return time.Now().Year() },
		"asset": func(path string) string { return resolveAsset(path) },
		"money": Money,
		// shipping renders a fee as "Free" when zero.
		"shipping": func(fee decimal.Decimal) string { return pricing.ShippingLabel(fee) },
		"items":    pricing.ItemsLabel,
		"seq":      seq,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"active": func(prefix string) bool {
			if prefix == "/" {
				return r.URL.Path == "/"
			}
			return strings.HasPrefix(r.URL.Path, prefix)
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Money formats an amount as US dollars with two decimals.
func Money(v any) string {
	switch n := v.(type) {
	case decimal.Decimal:
		return pricing.FormatUSD(n)
	case *decimal.Decimal:
		if n == nil {
			return pricing.FormatUSD(decimal.Zero)
		}
		return pricing.FormatUSD(*n)
	case float64:
		return pricing.FormatUSD(decimal.NewFromFloat(n))
	case int:
		return pricing.FormatUSD(decimal.NewFromInt(int64(n)))
	default:
		return fmt.Sprint(v)
	}
}

// seq returns 1..n, for star ratings and pagers.
func seq(n int) []int {
	if n < 0 {
		n = 0
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	p := filepath.Join(staticDir(), rel)
	b, err := os.ReadFile(p)
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

// staticDir sits next to the templates directory.
func staticDir() string {
	if baseDir == "" {
		once.Do(detectBase)
	}
	return filepath.Join(filepath.Dir(baseDir), "static")
}

// resolveAsset prefers a hashed filename from manifest.json then falls back to query param versioning.
func resolveAsset(rel string) string {
	if devMode {
		parseManifest() // reload each request in dev
	} else {
		assetManifestOnce.Do(parseManifest)
	}
	if assetManifest != nil {
		if h, ok := assetManifest[rel]; ok {
			return "/static/" + h
		}
	}
	return versionedAsset(rel)
}

func parseManifest() {
	mf := filepath.Join(staticDir(), "manifest.json")
	b, err := os.ReadFile(mf)
	if err != nil {
		return
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return
	}
	assetManifest = m
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
// Intended for test code to avoid cross-test pollution when working directories change.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

func parse(r *http.Request, name string) (*template.Template, error) {
	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		return nil, err
	}
	root := layoutBase(mainPath)
	layoutPath := filepath.Join(root, "layout.html")
	contentBytes, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	// A full document skips layout wrapping.
	if bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype")) {
		return template.New(filepath.Base(name)).Funcs(Funcs(r)).ParseFiles(mainPath)
	}
	files := []string{layoutPath, mainPath}
	for _, p := range partials {
		pp := filepath.Join(root, "partials", p)
		if fi, err := os.Stat(pp); err == nil && !fi.IsDir() {
			files = append(files, pp)
		}
	}
	return template.New("layout.html").Funcs(Funcs(r)).ParseFiles(files...)
}

// Render executes a page inside the layout with the shared partials.
// name is relative to the templates directory (e.g., "products.html").
// The theme func is bound at parse time, so cached templates are re-bound per request.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	// Ensure data map exists and inject common defaults to avoid template errors.
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["CartCount"]; !exists {
		data["CartCount"] = cartCountResolver(r)
	}
	if _, exists := data["Toasts"]; !exists {
		data["Toasts"] = toastResolver(r)
	}

	var t *template.Template
	if !devMode {
		tplCache.RLock()
		t = tplCache.m[name]
		tplCache.RUnlock()
	}
	if t == nil {
		parsed, err := parse(r, name)
		if err != nil {
			return err
		}
		t = parsed
		if !devMode {
			tplCache.Lock()
			tplCache.m[name] = t
			tplCache.Unlock()
		}
	}
	if t == nil {
		return errors.New("template not cached")
	}
	// Funcs bound to this request replace the ones captured at parse time.
	clone, err := t.Clone()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := clone.Funcs(Funcs(r)).Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
