package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/go-storefront/httpx"
	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/catalog"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/notify"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/validation"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts  *cart.Store
	toasts *notify.Center
	policy pricing.Policy
	logger *zap.Logger
}

func NewCartHandler(carts *cart.Store, toasts *notify.Center, policy pricing.Policy, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, toasts: toasts, policy: policy, logger: logger}
}

type cartInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func readCartInput(r *http.Request) (cartInput, error) {
	var in cartInput
	if jsonBody(r) {
		err := httpx.DecodeJSON(r, &in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	id, _ := strconv.ParseUint(r.FormValue("product_id"), 10, 64)
	in.ProductID = uint(id)
	in.Quantity = 1
	if q := r.FormValue("quantity"); q != "" {
		in.Quantity, _ = strconv.Atoi(q)
	}
	return in, nil
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return uint(id), err == nil && id > 0
}

// Show renders the cart with its order summary.
func (h *CartHandler) Show(w http.ResponseWriter, r *http.Request) {
	sid := session.ID(r)
	items := h.carts.Items(sid)
	lines, err := h.carts.LineItems(sid)
	if err != nil {
		h.logger.Error("cart line items", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "cart_unavailable", nil)
		return
	}
	summary, err := h.policy.Summarize(lines)
	if err != nil {
		h.logger.Error("cart summary", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "cart_unavailable", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"items":   items,
			"count":   h.carts.Count(sid),
			"summary": summary.Rounded(),
		})
		return
	}
	render(w, r, h.logger, "cart.html", map[string]any{
		"Items":     items,
		"Summary":   summary,
		"Threshold": h.policy.FreeShippingThreshold,
	})
}

// Add puts a product in the cart and confirms with a toast.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	in, err := readCartInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	v := validation.Violations{}
	if in.ProductID == 0 {
		v["product_id"] = "required"
	}
	validation.RangeInt("quantity", in.Quantity, 1, 999, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	sid := session.ID(r)
	added, item, err := h.carts.Add(r.Context(), sid, in.ProductID, in.Quantity)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
		return
	case errors.Is(err, cart.ErrOutOfStock):
		httpx.JSONError(w, http.StatusConflict, "out_of_stock", nil)
		return
	case err != nil:
		h.logger.Error("add to cart", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "add_to_cart_failed", nil)
		return
	}

	note := checkout.Notification{
		Title:       "Added to cart",
		Description: fmt.Sprintf("%d x %s added to your cart", added, item.Name),
		Variant:     checkout.VariantDefault,
	}
	if added == 0 {
		note = checkout.Notification{
			Title:       "Stock limit reached",
			Description: fmt.Sprintf("Your cart already holds all %d x %s in stock", item.Stock, item.Name),
			Variant:     checkout.VariantDestructive,
		}
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{
			"added":        added,
			"item":         item,
			"count":        h.carts.Count(sid),
			"notification": note,
		})
		return
	}
	h.toasts.Push(sid, note)
	back(w, r, "/cart")
}

// Update changes a line's quantity; zero removes it.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "item_not_found", nil)
		return
	}
	in, err := readCartInput(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	sid := session.ID(r)
	item, found := h.carts.Update(sid, id, in.Quantity)
	if !found {
		httpx.JSONError(w, http.StatusNotFound, "item_not_found", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"item": item, "count": h.carts.Count(sid)})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Remove drops a line from the cart.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	sid := session.ID(r)
	if !ok || !h.carts.Remove(sid, id) {
		httpx.JSONError(w, http.StatusNotFound, "item_not_found", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"count": h.carts.Count(sid)})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
