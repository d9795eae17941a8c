package controllers

import (
	"net/http"
	"strings"

	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

// Required customer fields are checked by the checkout service so every
// missing field is reported together.
type checkoutRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	DeliveryDate  string `json:"deliveryDate"`
	Notes         string `json:"notes" validate:"max=1000"`
	PaymentMethod string `json:"paymentMethod"`
}

// Checkout places an order from the caller's cart, signed in or guest.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout"))
			return
		}

		id, err := cartIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := parseDate("deliveryDate", req.DeliveryDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := enums.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
		if method == "" {
			method = enums.PaymentMethodCash
		}

		placement, err := svc.PlaceOrder(r.Context(), id, checkoutsvc.PlaceOrderInput{
			Customer: models.CustomerInfo{
				Name:    req.Name,
				Email:   req.Email,
				Phone:   req.Phone,
				Address: req.Address,
			},
			DeliveryDate:  delivery,
			Notes:         req.Notes,
			PaymentMethod: method,
			Actor:         actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placement)
	}
}
