package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/api/middleware"
	"github.com/kivahq/kiva-backend/internal/orders"
	paymentsvc "github.com/kivahq/kiva-backend/internal/payments"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

type stubPaymentService struct {
	checkout *paymentsvc.CheckoutDTO
	err      error

	webhookBody      []byte
	webhookSignature string
	webhookErr       error
}

func (s *stubPaymentService) Initiate(ctx context.Context, userID uuid.UUID, req paymentsvc.InitiateRequest) (*paymentsvc.CheckoutDTO, error) {
	return s.checkout, s.err
}

func (s *stubPaymentService) Confirm(ctx context.Context, userID uuid.UUID, req paymentsvc.ConfirmRequest) (*orders.OrderDTO, error) {
	return nil, s.err
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	s.webhookBody = body
	s.webhookSignature = signature
	return s.webhookErr
}

func TestCheckoutSuccess(t *testing.T) {
	orderID := uuid.New()
	svc := &stubPaymentService{checkout: &paymentsvc.CheckoutDTO{
		OrderID:        orderID,
		GatewayOrderID: "gw_1",
		AmountMinor:    193800,
		Currency:       "INR",
	}}
	handler := Checkout(svc, nil)

	body := strings.NewReader(`{"order_id":"` + orderID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data paymentsvc.CheckoutDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.GatewayOrderID != "gw_1" {
		t.Fatalf("unexpected gateway order id: %s", envelope.Data.GatewayOrderID)
	}
}

func TestCheckoutMissingIdentity(t *testing.T) {
	handler := Checkout(&stubPaymentService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutMapsServiceErrors(t *testing.T) {
	svc := &stubPaymentService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is paid")}
	handler := Checkout(svc, nil)

	body := strings.NewReader(`{"order_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestPaymentWebhookForwardsRawBody(t *testing.T) {
	svc := &stubPaymentService{}
	handler := PaymentWebhook(svc, nil)

	payload := []byte(`{"event":"payment.captured","payload":{"gateway_order_id":"gw_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", "sig")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !bytes.Equal(svc.webhookBody, payload) {
		t.Fatalf("handler must pass the raw body through, got %s", svc.webhookBody)
	}
	if svc.webhookSignature != "sig" {
		t.Fatalf("unexpected signature %q", svc.webhookSignature)
	}
}

func TestPaymentWebhookRequiresSignature(t *testing.T) {
	svc := &stubPaymentService{}
	handler := PaymentWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.webhookBody != nil {
		t.Fatalf("service must not run for unsigned requests")
	}
}

func TestPaymentWebhookBadSignature(t *testing.T) {
	svc := &stubPaymentService{webhookErr: pkgerrors.New(pkgerrors.CodeValidation, "webhook signature mismatch")}
	handler := PaymentWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(`{}`))
	req.Header.Set("X-Webhook-Signature", "bogus")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
