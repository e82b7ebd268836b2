package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

// AddItemRequest is the payload for putting a product in the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest sets the absolute quantity of a cart line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// CartItemDTO is one cart line joined with its product snapshot.
// DiscountPrice is present only when the product carries a discount.
type CartItemDTO struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Quantity      int              `json:"quantity"`
	LineTotal     decimal.Decimal  `json:"line_total"`
	Stock         int              `json:"stock"`
	Images        []string         `json:"images"`
}

// CartDTO is the whole cart with its computed subtotal.
type CartDTO struct {
	Items    []CartItemDTO   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product == nil {
		return dto
	}

	product := item.Product
	dto.Name = product.Name
	dto.Slug = product.Slug
	dto.Price = product.Price
	dto.Stock = product.Stock
	dto.Images = append([]string(nil), product.Images...)

	effective := product.Price
	if product.HasDiscount() {
		sale := product.SalePrice()
		dto.DiscountPrice = &sale
		effective = sale
	}
	dto.LineTotal = effective.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return dto
}
