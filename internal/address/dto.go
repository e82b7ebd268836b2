package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Recipient  string    `json:"recipient"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateAddressRequest struct {
	Recipient  string  `json:"recipient" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required"`
	IsDefault  bool    `json:"is_default"`
}

// UpdateAddressRequest carries partial updates; nil fields are untouched.
type UpdateAddressRequest struct {
	Recipient  *string `json:"recipient,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Line1      *string `json:"line1,omitempty"`
	Line2      *string `json:"line2,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}

func FromAddressModel(m *models.Address) *AddressDTO {
	if m == nil {
		return nil
	}
	return &AddressDTO{
		ID:         m.ID,
		Recipient:  m.Recipient,
		Phone:      m.Phone,
		Line1:      m.Line1,
		Line2:      m.Line2,
		City:       m.City,
		State:      m.State,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		IsDefault:  m.IsDefault,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *CreateAddressRequest) ToModel(userID uuid.UUID) *models.Address {
	return &models.Address{
		UserID:     userID,
		Recipient:  r.Recipient,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}
