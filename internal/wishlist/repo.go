package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence. All operations go through
// the same uniqueness invariant on (wishlist_id, product_id).
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureWishlist returns the user's wishlist, creating it on first use.
func (r *Repository) EnsureWishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := r.db.WithContext(ctx).First(&wishlist, "user_id = ?", userID).Error
	if err == nil {
		return &wishlist, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	wishlist = models.Wishlist{ID: uuid.New(), UserID: userID}
	if createErr := r.db.WithContext(ctx).Create(&wishlist).Error; createErr != nil {
		// concurrent first save may have won the unique index race
		var existing models.Wishlist
		if findErr := r.db.WithContext(ctx).First(&existing, "user_id = ?", userID).Error; findErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &wishlist, nil
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	if wishlistID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, wishlist_id, product_id, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
			uuid.New(), wishlistID, productID).
		Error
}

// RemoveItem deletes the entry if present and reports whether a row matched.
func (r *Repository) RemoveItem(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether the product is on the wishlist.
func (r *Repository) Exists(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListItems returns the wishlist entries with products, newest first.
func (r *Repository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("wishlist_id = ?", wishlistID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
