package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

type pair struct {
	wishlistID uuid.UUID
	productID  uuid.UUID
}

type stubWishlistRepo struct {
	lists   map[uuid.UUID]*models.Wishlist
	entries map[pair]bool
}

func newStubWishlistRepo() *stubWishlistRepo {
	return &stubWishlistRepo{
		lists:   map[uuid.UUID]*models.Wishlist{},
		entries: map[pair]bool{},
	}
}

func (s *stubWishlistRepo) EnsureWishlist(_ context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	if wishlist, ok := s.lists[userID]; ok {
		return wishlist, nil
	}
	wishlist := &models.Wishlist{ID: uuid.New(), UserID: userID}
	s.lists[userID] = wishlist
	return wishlist, nil
}

func (s *stubWishlistRepo) AddItem(_ context.Context, wishlistID, productID uuid.UUID) error {
	s.entries[pair{wishlistID, productID}] = true
	return nil
}

func (s *stubWishlistRepo) RemoveItem(_ context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	key := pair{wishlistID, productID}
	if s.entries[key] {
		delete(s.entries, key)
		return true, nil
	}
	return false, nil
}

func (s *stubWishlistRepo) Exists(_ context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	return s.entries[pair{wishlistID, productID}], nil
}

func (s *stubWishlistRepo) ListItems(_ context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error) {
	out := []models.WishlistItem{}
	for key := range s.entries {
		if key.wishlistID == wishlistID {
			out = append(out, models.WishlistItem{WishlistID: wishlistID, ProductID: key.productID})
		}
	}
	return out, nil
}

type stubWishlistProducts struct {
	known map[uuid.UUID]bool
}

func (s *stubWishlistProducts) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if s.known[id] {
		return &models.Product{ID: id}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newWishlistService(t *testing.T) (Service, *stubWishlistRepo, *stubWishlistProducts) {
	t.Helper()
	repo := newStubWishlistRepo()
	products := &stubWishlistProducts{known: map[uuid.UUID]bool{}}
	svc, err := NewService(repo, products)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, products
}

func TestToggleIsAnInvolution(t *testing.T) {
	t.Parallel()

	svc, repo, products := newWishlistService(t)
	userID := uuid.New()
	productID := uuid.New()
	products.known[productID] = true

	first, err := svc.Toggle(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !first.InWishlist {
		t.Fatal("first toggle should add")
	}

	second, err := svc.Toggle(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.InWishlist {
		t.Fatal("second toggle should remove")
	}
	if len(repo.entries) != 0 {
		t.Fatalf("double toggle must restore the empty state, entries=%d", len(repo.entries))
	}

	third, err := svc.Toggle(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("third toggle: %v", err)
	}
	if !third.InWishlist {
		t.Fatal("third toggle should add again")
	}
}

func TestToggleUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newWishlistService(t)
	_, err := svc.Toggle(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddRemoveContainsShareOneStore(t *testing.T) {
	t.Parallel()

	svc, _, products := newWishlistService(t)
	userID := uuid.New()
	productID := uuid.New()
	products.known[productID] = true

	if err := svc.Add(context.Background(), userID, productID); err != nil {
		t.Fatalf("add: %v", err)
	}

	contains, err := svc.Contains(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !contains.InWishlist {
		t.Fatal("expected membership after add")
	}

	// toggle sees the entry created by Add
	result, err := svc.Toggle(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if result.InWishlist {
		t.Fatal("toggle after add should remove")
	}

	contains, err = svc.Contains(context.Background(), userID, productID)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if contains.InWishlist {
		t.Fatal("expected no membership after toggle-removal")
	}

	if err := svc.Remove(context.Background(), userID, productID); err != nil {
		t.Fatalf("remove of absent entry must be a no-op, got %v", err)
	}
}
