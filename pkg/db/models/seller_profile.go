package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/enums"
)

// SellerProfile is the 1:1 verification record for a seller account.
// Status gates whether the seller's catalog is publicly visible.
type SellerProfile struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName    string             `gorm:"column:shop_name;not null"`
	Description *string            `gorm:"column:description"`
	Status      enums.SellerStatus `gorm:"column:status;not null;default:pending"`
	IsVerified  bool               `gorm:"column:is_verified;not null;default:false"`
	VerifiedAt  *time.Time         `gorm:"column:verified_at"`
	VerifiedBy  *uuid.UUID         `gorm:"column:verified_by;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
