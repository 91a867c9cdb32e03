package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-storefront/view"
	"go.uber.org/zap"
)

func render(w http.ResponseWriter, r *http.Request, logger *zap.Logger, name string, data map[string]any) {
	renderStatus(w, r, logger, http.StatusOK, name, data)
}

// renderStatus renders a page, falling back to a bare error when the template fails.
func renderStatus(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "template render error", http.StatusInternalServerError)
	}
}

// back redirects to the page the form was posted from, or fallback.
func back(w http.ResponseWriter, r *http.Request, fallback string) {
	target := fallback
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := r.URL.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) {
			target = u.RequestURI()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func jsonBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
