package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/sweetdelights/bakery-backend/internal/cart"
)

// DeliveryFee is the flat charge added to every order.
var DeliveryFee = decimal.NewFromInt(50)

// Totals is derived from a cart on demand and never stored on it.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
}

// Calculate prices the cart. An empty cart still carries the delivery fee.
func Calculate(st *cart.Store) Totals {
	subtotal := decimal.Zero
	count := 0
	if st != nil {
		subtotal = st.Subtotal()
		count = st.ItemCount()
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: DeliveryFee,
		Total:       subtotal.Add(DeliveryFee),
		ItemCount:   count,
	}
}

// Total is Calculate(st).Total.
func Total(st *cart.Store) decimal.Decimal {
	return Calculate(st).Total
}
