package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-storefront/httpx"
	"github.com/diewo77/go-storefront/internal/cart"
	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/diewo77/go-storefront/internal/pricing"
	"github.com/diewo77/go-storefront/internal/session"
	"github.com/diewo77/go-storefront/validation"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	svc    *checkout.Service
	carts  *cart.Store
	logger *zap.Logger
}

func NewCheckoutHandler(svc *checkout.Service, carts *cart.Store, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, carts: carts, logger: logger}
}

type statusPayload struct {
	Processing  bool                 `json:"processing"`
	State       string               `json:"state"`
	ButtonLabel string               `json:"button_label"`
	Summary     pricing.OrderSummary `json:"summary"`
}

func newStatus(v checkout.View) statusPayload {
	state := checkout.Idle
	if v.Processing {
		state = checkout.Processing
	}
	return statusPayload{
		Processing:  v.Processing,
		State:       state.String(),
		ButtonLabel: v.ButtonLabel,
		Summary:     v.Summary.Rounded(),
	}
}

// Show renders the checkout form next to the order summary.
func (h *CheckoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, checkout.Form{ShippingMethod: checkout.ShippingStandard, PaymentMethod: checkout.PaymentCard}, nil)
}

func (h *CheckoutHandler) page(w http.ResponseWriter, r *http.Request, status int, form checkout.Form, errs validation.Violations) {
	sid := session.ID(r)
	v, err := h.svc.View(sid)
	if err != nil {
		h.logger.Error("checkout view", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "checkout_unavailable", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, newStatus(v))
		return
	}
	if errs == nil {
		errs = validation.Violations{}
	}
	renderStatus(w, r, h.logger, status, "checkout.html", map[string]any{
		"Items":       h.carts.Items(sid),
		"Summary":     v.Summary,
		"Processing":  v.Processing,
		"ButtonLabel": v.ButtonLabel,
		"Form":        form,
		"Errors":      errs,
		"ExpressFee":  h.svc.Policy().ExpressShippingFee,
	})
}

// Submit validates the form and starts a submission. A submit while one is
// already processing changes nothing.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	asJSON := httpx.WantsJSON(r)
	if jsonBody(r) {
		if err := httpx.DecodeJSON(r, &form); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
			return
		}
		form.Normalize()
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_request", nil)
			return
		}
		form = checkout.FormFromValues(r.PostForm)
	}

	sid := session.ID(r)
	order, started, err := h.svc.Submit(sid, form)
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		if asJSON {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		// Card details are never echoed back into the page.
		form.CardNumber, form.CVC = "", ""
		h.page(w, r, http.StatusBadRequest, form, verr.Violations)
		return
	case err != nil:
		h.logger.Error("checkout submit", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "checkout_failed", nil)
		return
	}

	if started {
		h.logger.Info("checkout started",
			zap.String("reference", order.Reference),
			zap.String("total", order.Summary.Rounded().Total.StringFixed(2)),
			zap.Int("items", order.Summary.ItemCount))
	}
	if !asJSON {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	v, err := h.svc.View(sid)
	if err != nil {
		h.logger.Error("checkout view", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "checkout_unavailable", nil)
		return
	}
	if !started {
		httpx.JSON(w, http.StatusOK, map[string]any{"started": false, "status": newStatus(v)})
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"started":   true,
		"reference": order.Reference,
		"status":    newStatus(v),
	})
}

// Status reports whether a submission is processing, for polling clients.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.View(session.ID(r))
	if err != nil {
		h.logger.Error("checkout status", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "checkout_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, newStatus(v))
}

// Cancel tears down the session's checkout. An in-flight submission is
// abandoned without a notification.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.svc.End(session.ID(r))
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
