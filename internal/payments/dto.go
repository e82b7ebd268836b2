package payments

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CheckoutDTO carries everything the client needs to open the gateway's
// payment sheet, including the payer prefill fields.
type CheckoutDTO struct {
	OrderID        uuid.UUID  `json:"order_id"`
	GatewayOrderID string     `json:"gateway_order_id"`
	AmountMinor    int64      `json:"amount_minor"`
	Currency       string     `json:"currency"`
	Contact        ContactDTO `json:"contact"`
}

// ContactDTO prefills the gateway's payment sheet with the payer's details.
type ContactDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type InitiateRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type ConfirmRequest struct {
	OrderID          uuid.UUID `json:"order_id" validate:"required"`
	GatewayOrderID   string    `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required"`
	Signature        string    `json:"signature" validate:"required"`
}

// webhookEvent is the gateway's webhook body. Unknown event names are
// acknowledged without action.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
	} `json:"payload"`
}

func parseWebhookEvent(body []byte) (*webhookEvent, error) {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
