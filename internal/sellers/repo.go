package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	"github.com/kivahq/kiva-backend/pkg/pagination"
)

// Repository persists seller verification records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, profile *models.SellerProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.SellerProfile, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.SellerProfile{})
	if params.Status != "" {
		status, err := enums.ParseSellerStatus(params.Status)
		if err != nil {
			return nil, "", err
		}
		query = query.Where("status = ?", status)
	}

	if params.Cursor != "" {
		cursor, err := pagination.Parse(params.Cursor)
		if err != nil {
			return nil, "", err
		}
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var profiles []models.SellerProfile
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&profiles).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(profiles) > limit {
		profiles = profiles[:limit]
		last := profiles[len(profiles)-1]
		next = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return profiles, next, nil
}

func (r *Repository) Save(ctx context.Context, profile *models.SellerProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// UpdateVerification writes the status and verification columns in one
// statement; nil pointers clear the columns.
func (r *Repository) UpdateVerification(ctx context.Context, profile *models.SellerProfile) error {
	res := r.db.WithContext(ctx).
		Model(&models.SellerProfile{}).
		Where("id = ?", profile.ID).
		UpdateColumns(map[string]interface{}{
			"status":      profile.Status,
			"is_verified": profile.IsVerified,
			"verified_at": profile.VerifiedAt,
			"verified_by": profile.VerifiedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
