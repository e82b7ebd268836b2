package models

import (
	"time"

	"github.com/google/uuid"
)

// Reel is a short seller video, optionally pinned to a product.
type Reel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID  uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	VideoURL  string     `gorm:"column:video_url;not null"`
	Caption   *string    `gorm:"column:caption"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ReelLike marks one user's like on a reel; the pair is unique so the
// like endpoint can toggle.
type ReelLike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReelID    uuid.UUID `gorm:"column:reel_id;type:uuid;not null;uniqueIndex:idx_reel_likes_reel_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reel_likes_reel_user"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ReelComment is append-only.
type ReelComment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReelID    uuid.UUID `gorm:"column:reel_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
