package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

type SellerProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ShopName    string     `json:"shop_name"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	IsVerified  bool       `json:"is_verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	VerifiedBy  *uuid.UUID `json:"verified_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListParams struct {
	Cursor string
	Limit  int
	Status string
}

type SellerPage struct {
	Items      []SellerProfileDTO `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func FromSellerProfileModel(m *models.SellerProfile) *SellerProfileDTO {
	if m == nil {
		return nil
	}
	return &SellerProfileDTO{
		ID:          m.ID,
		UserID:      m.UserID,
		ShopName:    m.ShopName,
		Description: m.Description,
		Status:      m.Status.String(),
		IsVerified:  m.IsVerified,
		VerifiedAt:  m.VerifiedAt,
		VerifiedBy:  m.VerifiedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
