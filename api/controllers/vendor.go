package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/api/responses"
	"github.com/tamjidzihan/beakling/api/validators"
	earningsvc "github.com/tamjidzihan/beakling/internal/earnings"
	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/logger"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

// VendorOrders lists orders containing at least one of the vendor's items.
func VendorOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, status, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForVendor(r.Context(), vendorID, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

type earningsResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	Status      string          `json:"status"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newEarningsResponse(row models.VendorEarnings) earningsResponse {
	return earningsResponse{
		ID:          row.ID,
		OrderID:     row.OrderID,
		GrossAmount: row.GrossAmount,
		PlatformFee: row.PlatformFee,
		NetAmount:   row.NetAmount,
		Status:      row.Status.String(),
		PaidAt:      row.PaidAt,
		CreatedAt:   row.CreatedAt,
	}
}

// VendorEarningsList returns the vendor's per-order revenue shares.
func VendorEarningsList(svc earningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var status *enums.EarningsStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseEarningsStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		list, err := svc.ListByVendor(r.Context(), vendorID, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows := make([]earningsResponse, 0, len(list.Earnings))
		for _, row := range list.Earnings {
			rows = append(rows, newEarningsResponse(row))
		}
		out := map[string]any{"earnings": rows}
		if list.NextCursor != "" {
			out["next_cursor"] = list.NextCursor
		}
		responses.WriteSuccess(w, out)
	}
}

// VendorEarningsSummary aggregates the vendor's lifetime earnings.
func VendorEarningsSummary(svc earningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
