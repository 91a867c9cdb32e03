package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/go-storefront/httpx"
	"github.com/diewo77/go-storefront/internal/catalog"
	"go.uber.org/zap"
)

const featuredCount = 4

type ProductHandler struct {
	store  *catalog.Store
	logger *zap.Logger
}

func NewProductHandler(store *catalog.Store, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{store: store, logger: logger}
}

// Home renders the landing page with featured products.
func (h *ProductHandler) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := h.store.Featured(r.Context(), featuredCount)
	if err != nil {
		h.fail(w, r, "failed_to_load_products", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"featured": featured})
		return
	}
	render(w, r, h.logger, "index.html", map[string]any{
		"Featured": featured,
	})
}

// List renders the filtered, paginated catalog.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := catalog.FilterFromQuery(r.URL.Query())
	page, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed_to_list_products", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, page)
		return
	}
	categories, err := h.store.Categories(r.Context())
	if err != nil {
		h.fail(w, r, "failed_to_list_categories", err)
		return
	}
	render(w, r, h.logger, "products.html", map[string]any{
		"Page":          page,
		"Filter":        filter,
		"Categories":    categories,
		"RatingOptions": catalog.RatingOptions(),
		"PriceCeiling":  catalog.PriceCeiling,
	})
}

// View renders one product.
func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		h.notFound(w, r)
		return
	}
	product, err := h.store.Get(r.Context(), uint(id))
	if errors.Is(err, catalog.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.fail(w, r, "failed_to_load_product", err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, product)
		return
	}
	render(w, r, h.logger, "product.html", map[string]any{
		"Product": product,
		"Tab":     r.URL.Query().Get("tab"),
	})
}

func (h *ProductHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
		return
	}
	renderStatus(w, r, h.logger, http.StatusNotFound, "not_found.html", map[string]any{
		"Message": "We couldn't find that product.",
	})
}

func (h *ProductHandler) fail(w http.ResponseWriter, _ *http.Request, code string, err error) {
	h.logger.Error(code, zap.Error(err))
	httpx.JSONError(w, http.StatusInternalServerError, code, nil)
}
