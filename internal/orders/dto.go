package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

type OrderDTO struct {
	ID             uuid.UUID       `json:"id"`
	AddressID      uuid.UUID       `json:"address_id"`
	Status         string          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	GatewayOrderID *string         `json:"gateway_order_id,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Items          []OrderItemDTO  `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

type OrderItemDTO struct {
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type CreateOrderRequest struct {
	AddressID   uuid.UUID   `json:"address_id" validate:"required"`
	CartItemIDs []uuid.UUID `json:"cart_item_ids" validate:"required,min=1"`
}

type ListParams struct {
	Cursor string
	Limit  int
}

type OrderPage struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromOrderModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			LineTotal:       item.LineTotal(),
		})
	}
	return &OrderDTO{
		ID:             m.ID,
		AddressID:      m.AddressID,
		Status:         m.Status.String(),
		Subtotal:       m.Subtotal,
		ShippingFee:    m.ShippingFee,
		Tax:            m.Tax,
		Total:          m.Total,
		GatewayOrderID: m.GatewayOrderID,
		PaidAt:         m.PaidAt,
		Items:          items,
		CreatedAt:      m.CreatedAt,
	}
}
