package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

// Repository persists address book rows. All lookups are scoped to the
// owning user so a foreign id behaves like a missing one.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *Repository) FindByID(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Save(address).Error
}

func (r *Repository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearDefault unsets is_default on every address of the user. Callers run
// this before marking the new default so at most one row carries the flag.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
}

func (r *Repository) MarkDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		UpdateColumn("is_default", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
