package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// Service defines wishlist operations. Toggle, Add, Remove, and Contains
// all act on the same store so toggling twice is a no-op.
type Service interface {
	Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleResult, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Contains(ctx context.Context, userID, productID uuid.UUID) (*ContainsResult, error)
	List(ctx context.Context, userID uuid.UUID) (*ListDTO, error)
}

type repository interface {
	EnsureWishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error)
	AddItem(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error)
	Exists(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error)
	ListItems(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error)
}

type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     repository
	products productFinder
}

// NewService constructs the wishlist service.
func NewService(repo repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: repo, products: products}, nil
}

// Toggle flips membership: present → removed, absent → added.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleResult, error) {
	wishlist, err := s.prepare(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, wishlist.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check wishlist")
	}

	if exists {
		if _, err := s.repo.RemoveItem(ctx, wishlist.ID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
		}
		return &ToggleResult{ProductID: productID, InWishlist: false}, nil
	}

	if err := s.repo.AddItem(ctx, wishlist.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return &ToggleResult{ProductID: productID, InWishlist: true}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	wishlist, err := s.prepare(ctx, userID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.AddItem(ctx, wishlist.ID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	wishlist, err := s.prepare(ctx, userID, productID)
	if err != nil {
		return err
	}
	if _, err := s.repo.RemoveItem(ctx, wishlist.ID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	return nil
}

func (s *service) Contains(ctx context.Context, userID, productID uuid.UUID) (*ContainsResult, error) {
	wishlist, err := s.prepare(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, wishlist.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check wishlist")
	}
	return &ContainsResult{ProductID: productID, InWishlist: exists}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*ListDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	wishlist, err := s.repo.EnsureWishlist(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wishlist")
	}
	items, err := s.repo.ListItems(ctx, wishlist.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}

	out := &ListDTO{Items: make([]ItemDTO, 0, len(items))}
	for i := range items {
		out.Items = append(out.Items, itemFromModel(&items[i]))
	}
	return out, nil
}

// prepare validates identity and product existence and resolves the
// lazily-created wishlist container.
func (s *service) prepare(ctx context.Context, userID, productID uuid.UUID) (*models.Wishlist, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id required")
	}
	if _, err := s.products.FindProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	wishlist, err := s.repo.EnsureWishlist(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wishlist")
	}
	return wishlist, nil
}
