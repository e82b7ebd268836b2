package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// Service defines the cart operations exposed to customers.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type repository interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindItemByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     repository
	products productFinder
}

// NewService constructs the cart service.
func NewService(repo repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddItem merges quantity into an existing line or inserts a new one. The
// add path deliberately skips stock checks; stock is enforced on quantity
// updates and at order creation.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if _, err := s.products.FindProductByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	existing, err := s.repo.FindItemByUserAndProduct(ctx, userID, req.ProductID)
	switch {
	case err == nil:
		if err := s.repo.UpdateQuantity(ctx, existing.ID, existing.Quantity+req.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, err := s.repo.CreateItem(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart item")
	}

	return s.GetCart(ctx, userID)
}

// UpdateQuantity sets the absolute quantity of an owned cart line, bounded
// by the product's stock. The stored quantity is untouched on rejection.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	stock := 0
	if item.Product != nil {
		stock = item.Product.Stock
	}
	if quantity > stock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
	}

	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quantity")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.GetCart(ctx, userID)
}

// GetCart is a read-only projection of the cart with computed line totals
// and subtotal.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}

	cart := &CartDTO{
		Items:    make([]CartItemDTO, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for i := range items {
		dto := itemFromModel(&items[i])
		cart.Items = append(cart.Items, dto)
		cart.Subtotal = cart.Subtotal.Add(dto.LineTotal)
	}
	return cart, nil
}

func (s *service) loadOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}
