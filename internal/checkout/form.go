package checkout

import (
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/go-storefront/validation"
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"

	PaymentCard   = "card"
	PaymentPayPal = "paypal"
)

// Form is the shipping and payment form posted from the checkout page.
type Form struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`

	ShippingMethod string `json:"shipping_method"`
	PaymentMethod  string `json:"payment_method"`

	CardName   string `json:"card_name"`
	CardNumber string `json:"card_number"`
	Expiration string `json:"expiration"`
	CVC        string `json:"cvc"`
}

// FormFromValues reads a posted form. Missing radio/tab choices fall back to
// standard shipping and card payment, the defaults the page preselects.
func FormFromValues(vals url.Values) Form {
	get := func(k string) string { return strings.TrimSpace(vals.Get(k)) }
	f := Form{
		Email:          get("email"),
		FirstName:      get("first_name"),
		LastName:       get("last_name"),
		Address:        get("address"),
		City:           get("city"),
		State:          get("state"),
		PostalCode:     get("postal_code"),
		Country:        get("country"),
		Phone:          get("phone"),
		ShippingMethod: get("shipping_method"),
		PaymentMethod:  get("payment_method"),
		CardName:       get("card_name"),
		CardNumber:     get("card_number"),
		Expiration:     get("expiration"),
		CVC:            get("cvc"),
	}
	f.Normalize()
	return f
}

// Normalize trims every field and applies the preselected defaults. Forms
// decoded from JSON go through it too.
func (f *Form) Normalize() {
	for _, p := range []*string{
		&f.Email, &f.FirstName, &f.LastName, &f.Address, &f.City, &f.State,
		&f.PostalCode, &f.Country, &f.Phone, &f.ShippingMethod, &f.PaymentMethod,
		&f.CardName, &f.CardNumber, &f.Expiration, &f.CVC,
	} {
		*p = strings.TrimSpace(*p)
	}
	if f.ShippingMethod == "" {
		f.ShippingMethod = ShippingStandard
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = PaymentCard
	}
}

// FullName joins first and last name.
func (f Form) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

// Validate returns a *ValidationError listing every invalid field, or nil.
func (f Form) Validate(now time.Time) error {
	v := validation.Violations{}
	validation.Required("email", f.Email, v)
	validation.Email("email", f.Email, v)
	validation.Required("first_name", f.FirstName, v)
	validation.Required("last_name", f.LastName, v)
	validation.Required("address", f.Address, v)
	validation.Required("city", f.City, v)
	validation.Required("state", f.State, v)
	validation.Required("postal_code", f.PostalCode, v)
	validation.Required("country", f.Country, v)
	validation.Required("phone", f.Phone, v)
	validation.Phone("phone", f.Phone, v)
	validation.OneOf("shipping_method", f.ShippingMethod, v, ShippingStandard, ShippingExpress)
	validation.OneOf("payment_method", f.PaymentMethod, v, PaymentCard, PaymentPayPal)

	if f.PaymentMethod == PaymentCard {
		validation.Required("card_name", f.CardName, v)
		validation.Required("card_number", f.CardNumber, v)
		validation.CardNumber("card_number", f.CardNumber, v)
		validation.Required("expiration", f.Expiration, v)
		validation.Expiry("expiration", f.Expiration, now, v)
		validation.Required("cvc", f.CVC, v)
		validation.Digits("cvc", f.CVC, 3, 4, v)
	}
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
