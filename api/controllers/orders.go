package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/api/middleware"
	"github.com/tamjidzihan/beakling/api/responses"
	"github.com/tamjidzihan/beakling/api/validators"
	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/logger"
	"github.com/tamjidzihan/beakling/pkg/pagination"
	"github.com/tamjidzihan/beakling/pkg/types"
)

type orderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	ProductSKU   string          `json:"product_sku"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	Status          string                `json:"status"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	ShippingAmount  decimal.Decimal       `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ShippingAddress types.AddressSnapshot `json:"shipping_address"`
	BillingAddress  types.AddressSnapshot `json:"billing_address"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
	PaymentStatus   string                `json:"payment_status,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	TrackingNumber  string                `json:"tracking_number,omitempty"`
	CustomerNotes   string                `json:"customer_notes,omitempty"`
	Items           []orderItemResponse   `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	out := orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		PaymentMethod:   string(order.PaymentMethod),
		PaidAt:          order.PaidAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		TrackingNumber:  order.TrackingNumber,
		CustomerNotes:   order.CustomerNotes,
		Items:           make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	if order.PaymentIntent != nil {
		out.PaymentStatus = order.PaymentIntent.Status.String()
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, orderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			VendorID:     item.VendorID,
			ProductSKU:   item.ProductSKU,
			ProductTitle: item.ProductTitle,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
		})
	}
	return out
}

func newOrderListResponse(list *ordersvc.List) map[string]any {
	orders := make([]orderResponse, 0, len(list.Orders))
	for i := range list.Orders {
		orders = append(orders, newOrderResponse(&list.Orders[i]))
	}
	out := map[string]any{"orders": orders}
	if list.NextCursor != "" {
		out["next_cursor"] = list.NextCursor
	}
	return out
}

func requireUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

func listParams(r *http.Request) (pagination.Params, *enums.OrderStatus, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, nil, err
	}
	params := pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	var status *enums.OrderStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Params{}, nil, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "invalid status filter")
		}
		status = &parsed
	}
	return params, status, nil
}

// OrdersList returns the caller's orders, newest first.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, status, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// OrderGet returns one of the caller's orders with its lines.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderCancel closes an unshipped order and puts its stock back.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, &userID, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
