package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/api/responses"
	shippingsvc "github.com/tamjidzihan/beakling/internal/shipping"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/logger"
)

type shippingMethodResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	EstimatedDaysMin int             `json:"estimated_days_min"`
	EstimatedDaysMax int             `json:"estimated_days_max"`
}

func newShippingMethodResponse(m models.ShippingMethod) shippingMethodResponse {
	return shippingMethodResponse{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Price:            m.Price,
		EstimatedDaysMin: m.EstimatedDaysMin,
		EstimatedDaysMax: m.EstimatedDaysMax,
	}
}

// ShippingMethodsList returns the active delivery options.
func ShippingMethodsList(repo shippingsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping repository unavailable"))
			return
		}

		methods, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]shippingMethodResponse, 0, len(methods))
		for _, m := range methods {
			out = append(out, newShippingMethodResponse(m))
		}
		responses.WriteSuccess(w, map[string]any{"shipping_methods": out})
	}
}
