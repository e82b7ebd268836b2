package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	"github.com/kivahq/kiva-backend/pkg/pagination"
)

// approvedSellerClause gates public reads on the seller's verification state.
const approvedSellerClause = "EXISTS (SELECT 1 FROM seller_profiles sp WHERE sp.user_id = products.seller_id AND sp.status = ?)"

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProduct inserts a listing.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SaveProduct persists all fields of an existing listing.
func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// DeleteProduct removes a listing owned by the seller. Returns
// gorm.ErrRecordNotFound when no row matched.
func (r *Repository) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", productID, sellerID).
		Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindProductByID loads a listing regardless of visibility.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVisibleProductByID loads an active listing whose seller is approved.
func (r *Repository) FindVisibleProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		Where(approvedSellerClause, enums.SellerStatusApproved).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVisibleProducts returns a page of active listings from approved sellers,
// newest first.
func (r *Repository) ListVisibleProducts(ctx context.Context, params ListParams) ([]models.Product, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.Parse(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Where(approvedSellerClause, enums.SellerStatusApproved)

	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListSellerProducts returns a page of the seller's own listings, including
// inactive ones.
func (r *Repository) ListSellerProducts(ctx context.Context, sellerID uuid.UUID, params ListParams) ([]models.Product, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	decodedCursor, err := pagination.Parse(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("seller_id = ?", sellerID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCategoryByID loads a single category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
