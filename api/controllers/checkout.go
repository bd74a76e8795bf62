package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tamjidzihan/beakling/api/responses"
	"github.com/tamjidzihan/beakling/api/validators"
	checkoutsvc "github.com/tamjidzihan/beakling/internal/checkout"
	"github.com/tamjidzihan/beakling/pkg/enums"
	"github.com/tamjidzihan/beakling/pkg/logger"
)

type checkoutRequest struct {
	ShippingAddressID uuid.UUID  `json:"shipping_address_id" validate:"required"`
	BillingAddressID  *uuid.UUID `json:"billing_address_id"`
	ShippingMethodID  uuid.UUID  `json:"shipping_method_id" validate:"required"`
	PaymentMethod     string     `json:"payment_method"`
	CustomerNotes     string     `json:"customer_notes"`
}

// Checkout turns the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			ShippingAddressID: payload.ShippingAddressID,
			BillingAddressID:  payload.BillingAddressID,
			ShippingMethodID:  payload.ShippingMethodID,
			PaymentMethod:     enums.PaymentMethod(payload.PaymentMethod),
			CustomerNotes:     validators.SanitizeString(payload.CustomerNotes, 1000),
		}

		order, err := svc.Execute(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

