package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

// ProductDTO is the transport shape for a catalog listing. DiscountPrice is
// populated only when a positive discount applies.
type ProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	SellerID        uuid.UUID        `json:"seller_id"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     *string          `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountPrice   *decimal.Decimal `json:"discount_price,omitempty"`
	Stock           int              `json:"stock"`
	Images          []string         `json:"images"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CategoryDTO is the transport shape for a category.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ProductPage is a cursor-paginated slice of listings.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ListParams filters a catalog listing query.
type ListParams struct {
	Cursor     string
	Limit      int
	CategoryID *uuid.UUID
}

// CreateProductRequest carries the seller payload for a new listing.
type CreateProductRequest struct {
	Name            string           `json:"name" validate:"required"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Stock           int              `json:"stock"`
	Images          []string         `json:"images,omitempty"`
}

// UpdateProductRequest carries a partial listing update. Nil fields are
// left untouched.
type UpdateProductRequest struct {
	Name            *string          `json:"name,omitempty"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	Images          []string         `json:"images,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

// FromProductModel maps a product row into its transport shape.
func FromProductModel(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:              p.ID,
		SellerID:        p.SellerID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Images:          append([]string(nil), p.Images...),
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.HasDiscount() {
		sale := p.SalePrice()
		dto.DiscountPrice = &sale
	}
	return dto
}

// FromCategoryModel maps a category row into its transport shape.
func FromCategoryModel(c *models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug}
}
