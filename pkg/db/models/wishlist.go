package models

import (
	"time"

	"github.com/google/uuid"
)

// Wishlist is a per-user container, created lazily on first save.
type Wishlist struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// WishlistItem pins one product onto a wishlist; the pair is unique.
type WishlistItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WishlistID uuid.UUID `gorm:"column:wishlist_id;type:uuid;not null;uniqueIndex:idx_wishlist_items_wishlist_product"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_wishlist_items_wishlist_product"`
	Product    *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
