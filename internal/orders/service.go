package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/logger"
	"github.com/kivahq/kiva-backend/pkg/outbox"
)

// Service exposes order creation and lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params ListParams) (*OrderPage, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type repository interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, order *models.Order) error
	FindByUserAndID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	DecrementProductStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type cartRepository interface {
	ListItemsByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error)
	DeleteItemsByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type addressFinder interface {
	FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx          txRunner
	repo        repository
	cartRepo    cartRepository
	addresses   addressFinder
	events      eventEmitter
	shippingFee decimal.Decimal
	taxRate     decimal.Decimal
	logg        *logger.Logger
}

// NewService constructs the order service. The shipping fee and tax rate are
// parsed once so each checkout reuses the same frozen configuration.
func NewService(
	tx txRunner,
	repo repository,
	cartRepo cartRepository,
	addresses addressFinder,
	events eventEmitter,
	checkout config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address finder is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	shippingFee, err := checkout.ShippingFeeAmount()
	if err != nil {
		return nil, err
	}
	taxRate, err := checkout.TaxRateFraction()
	if err != nil {
		return nil, err
	}
	return &service{
		tx:          tx,
		repo:        repo,
		cartRepo:    cartRepo,
		addresses:   addresses,
		events:      events,
		shippingFee: shippingFee,
		taxRate:     taxRate,
		logg:        logg,
	}, nil
}

// Create places an order from the caller's selected cart lines. The order and
// its item snapshots are written in one transaction together with the stock
// decrements and the outbox record; the consumed cart lines are deleted in a
// second write after commit, so a failed cleanup never loses the order.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if req.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address_id required")
	}
	if len(req.CartItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart_item_ids must not be empty")
	}

	if _, err := s.addresses.FindByID(ctx, userID, req.AddressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}

	items, err := s.cartRepo.ListItemsByIDs(ctx, userID, req.CartItemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no matching cart items")
	}

	order, err := s.buildOrder(userID, req.AddressID, items)
	if err != nil {
		return nil, err
	}

	consumedIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		consumedIDs = append(consumedIDs, item.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		for _, item := range order.Items {
			if err := repo.DecrementProductStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCreated,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          FromOrderModel(order),
			OccurredAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItemsByIDs(ctx, userID, consumedIDs); err != nil {
		// The order is already committed; a stale cart is recoverable,
		// a lost order is not.
		if s.logg != nil {
			s.logg.Error(ctx, "failed to clear consumed cart items", err)
		}
	}

	return FromOrderModel(order), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params ListParams) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := &OrderPage{Items: make([]OrderDTO, 0, len(orders)), NextCursor: next}
	for i := range orders {
		page.Items = append(page.Items, *FromOrderModel(&orders[i]))
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return FromOrderModel(order), nil
}

// Cancel moves the order to cancelled regardless of its current status.
// Stock is not restored.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCanceled,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data:          map[string]string{"status": enums.OrderStatusCancelled.String()},
			OccurredAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	return FromOrderModel(order), nil
}

func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByUserAndID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// buildOrder snapshots the cart lines into order items and freezes the
// totals: subtotal of discounted line prices, a flat shipping fee, and
// tax as a fraction of the subtotal.
func (s *service) buildOrder(userID, addressID uuid.UUID, items []models.CartItem) (*models.Order, error) {
	subtotal := decimal.Zero
	snapshots := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart item missing product")
		}
		product := item.Product
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %q is no longer available", product.Name))
		}
		if item.Quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient stock for %q", product.Name))
		}

		snapshots = append(snapshots, models.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			UnitPrice:       product.Price,
			DiscountPercent: product.DiscountPercent,
		})
		subtotal = subtotal.Add(product.SalePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)

	return &models.Order{
		UserID:      userID,
		AddressID:   addressID,
		Status:      enums.OrderStatusPending,
		Subtotal:    subtotal,
		ShippingFee: s.shippingFee,
		Tax:         tax,
		Total:       subtotal.Add(s.shippingFee).Add(tax),
		Items:       snapshots,
	}, nil
}
