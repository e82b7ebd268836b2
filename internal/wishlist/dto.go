package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

// ToggleRequest flips a product's wishlist membership.
type ToggleRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// AddRequest pins a product onto the wishlist.
type AddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// ToggleResult reports the membership state after a toggle.
type ToggleResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	InWishlist bool      `json:"in_wishlist"`
}

// ContainsResult reports a membership check.
type ContainsResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	InWishlist bool      `json:"in_wishlist"`
}

// ItemDTO is one wishlist entry joined with its product.
type ItemDTO struct {
	ProductID     uuid.UUID        `json:"product_id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Images        []string         `json:"images"`
	AddedAt       time.Time        `json:"added_at"`
}

// ListDTO is the user's full wishlist.
type ListDTO struct {
	Items []ItemDTO `json:"items"`
}

func itemFromModel(item *models.WishlistItem) ItemDTO {
	dto := ItemDTO{
		ProductID: item.ProductID,
		AddedAt:   item.CreatedAt,
	}
	if item.Product != nil {
		dto.Name = item.Product.Name
		dto.Slug = item.Product.Slug
		dto.Price = item.Product.Price
		dto.Images = append([]string(nil), item.Product.Images...)
		if item.Product.HasDiscount() {
			sale := item.Product.SalePrice()
			dto.DiscountPrice = &sale
		}
	}
	return dto
}
