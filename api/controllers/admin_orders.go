package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tamjidzihan/beakling/api/responses"
	"github.com/tamjidzihan/beakling/api/validators"
	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/logger"
)

type orderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number"`
}

// AdminOrderStatus moves any order through its lifecycle. Asking for the
// current status is answered 200 without touching the row.
func AdminOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "invalid target status"))
			return
		}

		result, err := svc.Transition(r.Context(), orderID, target, validators.SanitizeString(payload.TrackingNumber, 100))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := newOrderResponse(result.Order)
		responses.WriteSuccess(w, map[string]any{
			"order":   out,
			"changed": result.Changed,
		})
	}
}
