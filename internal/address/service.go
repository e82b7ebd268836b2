package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// Service exposes the address book operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*AddressDTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, req UpdateAddressRequest) (*AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository interface {
	WithTx(tx *gorm.DB) *Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Save(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	MarkDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo repository
}

// NewService constructs the address service.
func NewService(tx txRunner, repo repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository is required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(addresses))
	for i := range addresses {
		out = append(out, *FromAddressModel(&addresses[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateAddressFields(&req); err != nil {
		return nil, err
	}

	address := req.ToModel(userID)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromAddressModel(address), nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, req UpdateAddressRequest) (*AddressDTO, error) {
	address, err := s.loadOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if req.Recipient != nil {
		address.Recipient = strings.TrimSpace(*req.Recipient)
	}
	if req.Phone != nil {
		address.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Line1 != nil {
		address.Line1 = strings.TrimSpace(*req.Line1)
	}
	if req.Line2 != nil {
		address.Line2 = req.Line2
	}
	if req.City != nil {
		address.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		address.State = strings.TrimSpace(*req.State)
	}
	if req.PostalCode != nil {
		address.PostalCode = strings.TrimSpace(*req.PostalCode)
	}
	if req.Country != nil {
		address.Country = strings.TrimSpace(*req.Country)
	}
	if address.Recipient == "" || address.Phone == "" || address.Line1 == "" ||
		address.City == "" || address.State == "" || address.PostalCode == "" || address.Country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address fields must not be blank")
	}

	if err := s.repo.Save(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return FromAddressModel(address), nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

// SetDefault moves the default flag in a single transaction: every flag for
// the user is unset first, then the chosen address is marked. The invariant
// is at most one default per user.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error) {
	address, err := s.loadOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
		}
		if err := repo.MarkDefault(ctx, userID, addressID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark default address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	address.IsDefault = true
	return FromAddressModel(address), nil
}

func (s *service) loadOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	address, err := s.repo.FindByID(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return address, nil
}

func validateAddressFields(req *CreateAddressRequest) error {
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Line1 = strings.TrimSpace(req.Line1)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.PostalCode = strings.TrimSpace(req.PostalCode)
	req.Country = strings.TrimSpace(req.Country)
	if req.Recipient == "" || req.Phone == "" || req.Line1 == "" ||
		req.City == "" || req.State == "" || req.PostalCode == "" || req.Country == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address fields must not be blank")
	}
	return nil
}
