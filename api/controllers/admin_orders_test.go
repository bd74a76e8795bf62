package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

type stubOrdersService struct {
	result *ordersvc.TransitionResult
	err    error

	lastTarget   enums.OrderStatus
	lastTracking string
}

func (s *stubOrdersService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) GetAny(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*ordersvc.List, error) {
	return &ordersvc.List{}, nil
}

func (s *stubOrdersService) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*ordersvc.List, error) {
	return &ordersvc.List{}, nil
}

func (s *stubOrdersService) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, trackingNumber string) (*ordersvc.TransitionResult, error) {
	s.lastTarget = target
	s.lastTracking = trackingNumber
	return s.result, s.err
}

func (s *stubOrdersService) Cancel(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, reason string) (*models.Order, error) {
	return nil, nil
}

func adminStatusRequest(t *testing.T, orderID uuid.UUID, payload map[string]any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+orderID.String()+"/status", bytes.NewReader(body))

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestAdminOrderStatusTransitions(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{
		result: &ordersvc.TransitionResult{
			Order: &models.Order{
				ID:          orderID,
				OrderNumber: "ORD-0F0F0F0F",
				Status:      enums.OrderStatusShipped,
			},
			Changed: true,
		},
	}
	handler := AdminOrderStatus(svc, nil)

	req := adminStatusRequest(t, orderID, map[string]any{
		"status":          "SHIPPED",
		"tracking_number": "1Z999AA10123456784",
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastTarget != enums.OrderStatusShipped {
		t.Fatalf("expected SHIPPED target, got %s", svc.lastTarget)
	}
	if svc.lastTracking != "1Z999AA10123456784" {
		t.Fatalf("tracking number not forwarded, got %q", svc.lastTracking)
	}

	var envelope struct {
		Data struct {
			Changed bool          `json:"changed"`
			Order   orderResponse `json:"order"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Changed {
		t.Fatal("expected changed=true")
	}
	if envelope.Data.Order.Status != "SHIPPED" {
		t.Fatalf("expected SHIPPED, got %s", envelope.Data.Order.Status)
	}
}

func TestAdminOrderStatusRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrderStatus(&stubOrdersService{}, nil)

	req := adminStatusRequest(t, uuid.New(), map[string]any{"status": "LOST"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInvalidStatus) {
		t.Fatalf("expected INVALID_STATUS, got %s", envelope.Error.Code)
	}
}

func TestAdminOrderStatusRejectsIllegalTransition(t *testing.T) {
	svc := &stubOrdersService{
		err: pkgerrors.New(pkgerrors.CodeInvalidStatus, "cannot move from PENDING to DELIVERED"),
	}
	handler := AdminOrderStatus(svc, nil)

	req := adminStatusRequest(t, uuid.New(), map[string]any{"status": "DELIVERED"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderStatusInvalidID(t *testing.T) {
	handler := AdminOrderStatus(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/not-a-uuid/status", bytes.NewReader([]byte(`{"status":"PAID"}`)))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
