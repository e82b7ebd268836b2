package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/enums"
)

// Order freezes the totals computed at checkout. Amounts never change after
// creation; only status and payment references do.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID        uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	Subtotal         decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingFee      decimal.Decimal   `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	Tax              decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null"`
	Total            decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	GatewayOrderID   *string           `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID *string           `gorm:"column:gateway_payment_id"`
	PaidAt           *time.Time        `gorm:"column:paid_at"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the product terms at the moment the order was placed.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName     string          `gorm:"column:product_name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal is the discounted unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	unit := i.UnitPrice
	if i.DiscountPercent.IsPositive() {
		unit = unit.Mul(oneHundred.Sub(i.DiscountPercent)).Div(oneHundred)
	}
	return unit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
