package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Product is a seller listing. Prices are stored in decimal currency units;
// the gateway boundary converts to minor units.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	CategoryID      *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Name            string          `gorm:"column:name;not null"`
	Slug            string          `gorm:"column:slug;not null;uniqueIndex"`
	Description     *string         `gorm:"column:description"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	Images          pq.StringArray  `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// SalePrice is the effective unit price after the percentage discount,
// floored at zero.
func (p Product) SalePrice() decimal.Decimal {
	if p.DiscountPercent.IsZero() {
		return p.Price
	}
	sale := p.Price.Mul(oneHundred.Sub(p.DiscountPercent)).Div(oneHundred)
	if sale.IsNegative() {
		return decimal.Zero
	}
	return sale
}

// HasDiscount reports whether a positive discount applies.
func (p Product) HasDiscount() bool {
	return p.DiscountPercent.IsPositive()
}
