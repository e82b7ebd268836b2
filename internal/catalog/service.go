package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

var maxDiscount = decimal.NewFromInt(100)

// Service defines catalog operations for both the public storefront and the
// seller dashboard.
type Service interface {
	ListPublic(ctx context.Context, params ListParams) (*ProductPage, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)

	CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID, params ListParams) (*ProductPage, error)
}

type repository interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVisibleProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListVisibleProducts(ctx context.Context, params ListParams) ([]models.Product, string, error)
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID, params ListParams) ([]models.Product, string, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type service struct {
	repo repository
}

// NewService constructs the catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListPublic(ctx context.Context, params ListParams) (*ProductPage, error) {
	rows, nextCursor, err := s.repo.ListVisibleProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return buildProductPage(rows, nextCursor), nil
}

func (s *service) GetPublic(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindVisibleProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromProductModel(product)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromCategoryModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !req.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	discount := decimal.Zero
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}
	if err := validateDiscount(discount); err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:        sellerID,
		CategoryID:      req.CategoryID,
		Name:            name,
		Slug:            generateSlug(name),
		Description:     req.Description,
		Price:           req.Price,
		DiscountPercent: discount,
		Stock:           req.Stock,
		Images:          normalizeImages(req.Images),
		IsActive:        true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	dto := FromProductModel(created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.loadOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *req.Price
	}
	if req.DiscountPercent != nil {
		if err := validateDiscount(*req.DiscountPercent); err != nil {
			return nil, err
		}
		product.DiscountPercent = *req.DiscountPercent
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		product.Stock = *req.Stock
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = req.CategoryID
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Images != nil {
		product.Images = normalizeImages(req.Images)
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	dto := FromProductModel(product)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.DeleteProduct(ctx, sellerID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) ListSellerProducts(ctx context.Context, sellerID uuid.UUID, params ListParams) (*ProductPage, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, nextCursor, err := s.repo.ListSellerProducts(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return buildProductPage(rows, nextCursor), nil
}

func (s *service) loadOwnedProduct(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.SellerID != sellerID {
		// ownership mismatch is indistinguishable from absence
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if *id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid category id")
	}
	if _, err := s.repo.FindCategoryByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return nil
}

func validateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(maxDiscount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be within [0, 100]")
	}
	return nil
}

func buildProductPage(rows []models.Product, nextCursor string) *ProductPage {
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromProductModel(&rows[i]))
	}
	return &ProductPage{Items: items, NextCursor: nextCursor}
}

func normalizeImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, image := range images {
		trimmed := strings.TrimSpace(image)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// generateSlug derives a URL slug from the listing name with a random
// suffix so rename collisions stay rare.
func generateSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
