package sellers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// Service exposes the admin-side seller verification flow. Approval is the
// only transition that grants catalog visibility.
type Service interface {
	List(ctx context.Context, params ListParams) (*SellerPage, error)
	Approve(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error)
	Reject(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error)
	Suspend(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error)
	Reset(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error)
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.SellerProfile, error)
	List(ctx context.Context, params ListParams) ([]models.SellerProfile, string, error)
	UpdateVerification(ctx context.Context, profile *models.SellerProfile) error
}

type service struct {
	repo repository
}

// NewService constructs the seller verification service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("seller repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*SellerPage, error) {
	profiles, next, err := s.repo.List(ctx, params)
	if err != nil {
		if params.Status != "" && !enums.SellerStatus(params.Status).IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller status filter")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller profiles")
	}
	page := &SellerPage{Items: make([]SellerProfileDTO, 0, len(profiles)), NextCursor: next}
	for i := range profiles {
		page.Items = append(page.Items, *FromSellerProfileModel(&profiles[i]))
	}
	return page, nil
}

// Approve verifies the seller and opens their catalog to the public.
func (s *service) Approve(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error) {
	return s.transition(ctx, adminID, sellerProfileID, func(profile *models.SellerProfile, now time.Time) {
		profile.Status = enums.SellerStatusApproved
		profile.IsVerified = true
		profile.VerifiedAt = &now
		profile.VerifiedBy = &adminID
	})
}

// Reject drops the verified flag but keeps the historical verification
// timestamps in place.
func (s *service) Reject(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error) {
	return s.transition(ctx, adminID, sellerProfileID, func(profile *models.SellerProfile, _ time.Time) {
		profile.Status = enums.SellerStatusRejected
		profile.IsVerified = false
	})
}

// Suspend touches the status only; verification state survives so a later
// re-approval does not need to repeat the checks.
func (s *service) Suspend(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error) {
	return s.transition(ctx, adminID, sellerProfileID, func(profile *models.SellerProfile, _ time.Time) {
		profile.Status = enums.SellerStatusSuspended
	})
}

// Reset returns the profile to a clean pending state.
func (s *service) Reset(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*SellerProfileDTO, error) {
	return s.transition(ctx, adminID, sellerProfileID, func(profile *models.SellerProfile, _ time.Time) {
		profile.Status = enums.SellerStatusPending
		profile.IsVerified = false
		profile.VerifiedAt = nil
		profile.VerifiedBy = nil
	})
}

func (s *service) transition(
	ctx context.Context,
	adminID, sellerProfileID uuid.UUID,
	apply func(profile *models.SellerProfile, now time.Time),
) (*SellerProfileDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	profile, err := s.repo.FindByID(ctx, sellerProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller profile")
	}

	apply(profile, time.Now().UTC())

	if err := s.repo.UpdateVerification(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update seller profile")
	}
	return FromSellerProfileModel(profile), nil
}
