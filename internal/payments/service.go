package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/internal/orders"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/logger"
	"github.com/kivahq/kiva-backend/pkg/outbox"
	"github.com/kivahq/kiva-backend/pkg/payments"
)

const (
	webhookEventPaymentCaptured = "payment.captured"
	webhookEventPaymentFailed   = "payment.failed"
)

// Service drives the payment lifecycle: checkout initiation, client-side
// confirmation, and gateway webhooks.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*CheckoutDTO, error)
	Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*orders.OrderDTO, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderRepository interface {
	WithTx(tx *gorm.DB) *orders.Repository
	FindByUserAndID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*payments.GatewayOrder, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	Currency() string
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx      txRunner
	orders  orderRepository
	users   userFinder
	gateway gateway
	events  eventEmitter
	logg    *logger.Logger
}

// NewService constructs the payment service.
func NewService(tx txRunner, orderRepo orderRepository, userRepo userFinder, gw gateway, events eventEmitter, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{tx: tx, orders: orderRepo, users: userRepo, gateway: gw, events: events, logg: logg}, nil
}

// Initiate registers the order with the gateway and stores the returned
// reference. Re-initiating a pending order reuses the stored reference
// instead of creating a second gateway order.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*CheckoutDTO, error) {
	order, err := s.loadOwned(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s, payment can only be initiated while pending", order.Status))
	}

	contact, err := s.payerContact(ctx, userID)
	if err != nil {
		return nil, err
	}

	// amounts cross the gateway boundary in minor units
	amountMinor := order.Total.Shift(2).Round(0).IntPart()

	if order.GatewayOrderID != nil && *order.GatewayOrderID != "" {
		return &CheckoutDTO{
			OrderID:        order.ID,
			GatewayOrderID: *order.GatewayOrderID,
			AmountMinor:    amountMinor,
			Currency:       s.gateway.Currency(),
			Contact:        contact,
		}, nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, order.ID.String())
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}
	if err := s.orders.SetGatewayOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store gateway order reference")
	}

	return &CheckoutDTO{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		AmountMinor:    gatewayOrder.AmountMinor,
		Currency:       gatewayOrder.Currency,
		Contact:        contact,
	}, nil
}

func (s *service) payerContact(ctx context.Context, userID uuid.UUID) (ContactDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return ContactDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payer")
	}
	contact := ContactDTO{Name: user.Name, Email: user.Email}
	if user.Phone != nil {
		contact.Phone = *user.Phone
	}
	return contact, nil
}

// Confirm verifies the checkout-callback signature and marks the order paid.
// A bad signature changes nothing.
func (s *service) Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*orders.OrderDTO, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"gateway_order_id, gateway_payment_id and signature are required")
	}

	order, err := s.loadOwned(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != req.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order reference mismatch")
	}
	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature mismatch")
	}

	paidAt := time.Now().UTC()
	if err := s.markPaid(ctx, order, req.GatewayPaymentID, paidAt); err != nil {
		return nil, err
	}
	return orders.FromOrderModel(order), nil
}

// HandleWebhook applies gateway-pushed payment state. The signature covers
// the raw body; events it does not recognize are acknowledged untouched.
func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook signature mismatch")
	}

	event, err := parseWebhookEvent(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse webhook body")
	}

	switch event.Event {
	case webhookEventPaymentCaptured:
		return s.applyCapture(ctx, event.Payload.OrderID, event.Payload.PaymentID)
	case webhookEventPaymentFailed:
		return s.applyFailure(ctx, event.Payload.OrderID)
	default:
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "webhook_event", event.Event), "ignoring unknown webhook event")
		}
		return nil
	}
}

func (s *service) applyCapture(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	order, err := s.findByGatewayRef(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	return s.markPaid(ctx, order, gatewayPaymentID, time.Now().UTC())
}

// applyFailure moves the order back to pending, deliberately also when the
// order had already been marked paid: the gateway's word is final.
func (s *service) applyFailure(ctx context.Context, gatewayOrderID string) error {
	order, err := s.findByGatewayRef(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order pending")
		}
		return nil
	})
}

func (s *service) markPaid(ctx context.Context, order *models.Order, gatewayPaymentID string, paidAt time.Time) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).MarkPaid(ctx, order.ID, gatewayPaymentID, paidAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderPaid,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]string{
				"gateway_payment_id": gatewayPaymentID,
				"paid_at":            paidAt.Format(time.RFC3339),
			},
			OccurredAt: paidAt,
		})
	})
	if err != nil {
		return err
	}

	order.Status = enums.OrderStatusPaid
	order.GatewayPaymentID = &gatewayPaymentID
	order.PaidAt = &paidAt
	return nil
}

func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id required")
	}
	order, err := s.orders.FindByUserAndID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) findByGatewayRef(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing order reference")
	}
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by gateway reference")
	}
	return order, nil
}
