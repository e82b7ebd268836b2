package payments

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/internal/orders"
	"github.com/kivahq/kiva-backend/internal/users"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/outbox"
	"github.com/kivahq/kiva-backend/pkg/payments"
)

const (
	testKeySecret     = "key-secret"
	testWebhookSecret = "webhook-secret"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

// stubGateway signs with the same HMAC scheme as the real client so the
// service's verification paths run unchanged.
type stubGateway struct {
	createCalls int
}

func (g *stubGateway) CreateOrder(_ context.Context, amountMinor int64, receipt string) (*payments.GatewayOrder, error) {
	g.createCalls++
	return &payments.GatewayOrder{
		ID:          fmt.Sprintf("gw_%s_%d", receipt[:8], g.createCalls),
		AmountMinor: amountMinor,
		Currency:    "INR",
		Receipt:     receipt,
		Status:      "created",
	}, nil
}

func (g *stubGateway) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return payments.SignPayload(testKeySecret, gatewayOrderID+"|"+gatewayPaymentID) == signature
}

func (g *stubGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return payments.SignPayload(testWebhookSecret, string(body)) == signature
}

func (g *stubGateway) Currency() string { return "INR" }

type paymentTestEnv struct {
	db      *gorm.DB
	svc     Service
	gateway *stubGateway
	emitter *recordingEmitter
	userID  uuid.UUID
}

func newPaymentTestEnv(t *testing.T) *paymentTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  address_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  shipping_fee NUMERIC NOT NULL,
  tax NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  gateway_order_id TEXT,
  gateway_payment_id TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	gw := &stubGateway{}
	emitter := &recordingEmitter{}
	svc, err := NewService(gormTxRunner{db: db}, orders.NewRepository(db), users.NewRepository(db), gw, emitter, nil)
	require.NoError(t, err)

	env := &paymentTestEnv{db: db, svc: svc, gateway: gw, emitter: emitter, userID: uuid.New()}

	phone := "9876543210"
	require.NoError(t, db.Create(&models.User{
		ID:           env.userID,
		Email:        "payer@example.com",
		PasswordHash: "x",
		Name:         "Payer One",
		Phone:        &phone,
		Role:         enums.UserRoleCustomer,
	}).Error)

	return env
}

func (e *paymentTestEnv) seedOrder(t *testing.T, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      e.userID,
		AddressID:   uuid.New(),
		Status:      status,
		Subtotal:    decimal.NewFromInt(1600),
		ShippingFee: decimal.NewFromInt(50),
		Tax:         decimal.NewFromInt(288),
		Total:       decimal.NewFromInt(1938),
		Items: []models.OrderItem{{
			ID:              uuid.New(),
			ProductID:       uuid.New(),
			ProductName:     "walnut shelf",
			Quantity:        2,
			UnitPrice:       decimal.NewFromInt(1000),
			DiscountPercent: decimal.NewFromInt(20),
		}},
	}
	require.NoError(t, e.db.Create(order).Error)
	return order
}

func (e *paymentTestEnv) reload(t *testing.T, orderID uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, e.db.First(&order, "id = ?", orderID).Error)
	return &order
}

func TestInitiateCreatesGatewayOrderOnce(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	first, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(193800), first.AmountMinor)
	assert.Equal(t, "INR", first.Currency)
	assert.NotEmpty(t, first.GatewayOrderID)
	assert.Equal(t, ContactDTO{Name: "Payer One", Email: "payer@example.com", Phone: "9876543210"}, first.Contact)
	assert.Equal(t, 1, env.gateway.createCalls)

	second, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, first.GatewayOrderID, second.GatewayOrderID)
	assert.Equal(t, 1, env.gateway.createCalls, "re-initiation must reuse the stored reference")

	reloaded := env.reload(t, order.ID)
	require.NotNil(t, reloaded.GatewayOrderID)
	assert.Equal(t, first.GatewayOrderID, *reloaded.GatewayOrderID)
}

func TestInitiateRejectsNonPendingOrders(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPaid)

	_, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestInitiateScopesOwnership(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	_, err := env.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{OrderID: order.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestConfirmMarksOrderPaid(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	checkout, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)

	paymentID := "pay_123"
	signature := payments.SignPayload(testKeySecret, checkout.GatewayOrderID+"|"+paymentID)

	dto, err := env.svc.Confirm(context.Background(), env.userID, ConfirmRequest{
		OrderID:          order.ID,
		GatewayOrderID:   checkout.GatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        signature,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", dto.Status)
	require.NotNil(t, dto.PaidAt)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "walnut shelf", dto.Items[0].ProductName)

	reloaded := env.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	require.NotNil(t, reloaded.GatewayPaymentID)
	assert.Equal(t, paymentID, *reloaded.GatewayPaymentID)
	assert.NotNil(t, reloaded.PaidAt)

	require.Len(t, env.emitter.events, 1)
	assert.Equal(t, enums.OutboxEventOrderPaid, env.emitter.events[0].EventType)
}

func TestConfirmBadSignatureChangesNothing(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	checkout, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)

	_, err = env.svc.Confirm(context.Background(), env.userID, ConfirmRequest{
		OrderID:          order.ID,
		GatewayOrderID:   checkout.GatewayOrderID,
		GatewayPaymentID: "pay_123",
		Signature:        "deadbeef",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	reloaded := env.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.GatewayPaymentID)
	assert.Nil(t, reloaded.PaidAt)
	assert.Empty(t, env.emitter.events)
}

func TestConfirmRequiresAllFields(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	_, err := env.svc.Confirm(context.Background(), env.userID, ConfirmRequest{
		OrderID:        order.ID,
		GatewayOrderID: "gw_1",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func webhookBody(event, orderRef, paymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"order_id":%q,"payment_id":%q}}`,
		event, orderRef, paymentID,
	))
}

func TestWebhookCaptureMarksPaid(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	checkout, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)

	body := webhookBody("payment.captured", checkout.GatewayOrderID, "pay_wh")
	signature := payments.SignPayload(testWebhookSecret, string(body))

	require.NoError(t, env.svc.HandleWebhook(context.Background(), body, signature))

	reloaded := env.reload(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	require.NotNil(t, reloaded.GatewayPaymentID)
	assert.Equal(t, "pay_wh", *reloaded.GatewayPaymentID)
}

func TestWebhookFailureRevertsEvenPaidOrders(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	checkout, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)

	capture := webhookBody("payment.captured", checkout.GatewayOrderID, "pay_wh")
	require.NoError(t, env.svc.HandleWebhook(context.Background(), capture,
		payments.SignPayload(testWebhookSecret, string(capture))))
	assert.Equal(t, enums.OrderStatusPaid, env.reload(t, order.ID).Status)

	failure := webhookBody("payment.failed", checkout.GatewayOrderID, "pay_wh")
	require.NoError(t, env.svc.HandleWebhook(context.Background(), failure,
		payments.SignPayload(testWebhookSecret, string(failure))))
	assert.Equal(t, enums.OrderStatusPending, env.reload(t, order.ID).Status)
}

func TestWebhookUnknownEventIsNoOp(t *testing.T) {
	env := newPaymentTestEnv(t)
	order := env.seedOrder(t, enums.OrderStatusPending)

	checkout, err := env.svc.Initiate(context.Background(), env.userID, InitiateRequest{OrderID: order.ID})
	require.NoError(t, err)

	body := webhookBody("refund.created", checkout.GatewayOrderID, "rf_1")
	require.NoError(t, env.svc.HandleWebhook(context.Background(), body,
		payments.SignPayload(testWebhookSecret, string(body))))

	assert.Equal(t, enums.OrderStatusPending, env.reload(t, order.ID).Status)
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	env := newPaymentTestEnv(t)

	body := webhookBody("payment.captured", "gw_1", "pay_1")
	err := env.svc.HandleWebhook(context.Background(), body, "bogus")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
