package reels

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/internal/catalog"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

func setupReelTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  category_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  images TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS reels (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  product_id TEXT,
  video_url TEXT NOT NULL,
  caption TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS reel_likes (
  id TEXT PRIMARY KEY,
  reel_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (reel_id, user_id)
);`,
		`CREATE TABLE IF NOT EXISTS reel_comments (
  id TEXT PRIMARY KEY,
  reel_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newReelService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedReel(t *testing.T, db *gorm.DB, sellerID uuid.UUID) *models.Reel {
	t.Helper()
	reel := &models.Reel{
		ID:       uuid.New(),
		SellerID: sellerID,
		VideoURL: "https://cdn.kiva.shop/reels/clip.mp4",
	}
	require.NoError(t, db.Create(reel).Error)
	return reel
}

func TestToggleLikeFlipsAndCounts(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	reel := seedReel(t, db, uuid.New())
	userID := uuid.New()

	result, err := svc.ToggleLike(context.Background(), userID, reel.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, int64(1), result.LikeCount)

	result, err = svc.ToggleLike(context.Background(), userID, reel.ID)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, int64(0), result.LikeCount)

	other := uuid.New()
	_, err = svc.ToggleLike(context.Background(), other, reel.ID)
	require.NoError(t, err)
	result, err = svc.ToggleLike(context.Background(), userID, reel.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, int64(2), result.LikeCount)
}

func TestCommentsAreAppendOnlyAndOrdered(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	reel := seedReel(t, db, uuid.New())
	userID := uuid.New()

	first, err := svc.AddComment(context.Background(), userID, reel.ID, CreateCommentRequest{Body: "nice glaze"})
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), uuid.New(), reel.ID, CreateCommentRequest{Body: "  where to buy?  "})
	require.NoError(t, err)

	comments, err := svc.ListComments(context.Background(), reel.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, "where to buy?", comments[1].Body)

	dto, err := svc.Get(context.Background(), reel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dto.CommentCount)
}

func TestAddCommentRejectsBlankBody(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	reel := seedReel(t, db, uuid.New())

	_, err := svc.AddComment(context.Background(), uuid.New(), reel.ID, CreateCommentRequest{Body: "   "})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateReelValidatesProductOwnership(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	sellerID := uuid.New()

	product := &models.Product{
		ID:       uuid.New(),
		SellerID: uuid.New(), // someone else's product
		Name:     "Vase",
		Slug:     "vase-" + uuid.NewString()[:8],
		Price:    decimal.NewFromInt(500),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)

	_, err := svc.CreateReel(context.Background(), sellerID, CreateReelRequest{
		ProductID: &product.ID,
		VideoURL:  "https://cdn.kiva.shop/reels/vase.mp4",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	own := &models.Product{
		ID:       uuid.New(),
		SellerID: sellerID,
		Name:     "Bowl",
		Slug:     "bowl-" + uuid.NewString()[:8],
		Price:    decimal.NewFromInt(300),
		IsActive: true,
	}
	require.NoError(t, db.Create(own).Error)

	dto, err := svc.CreateReel(context.Background(), sellerID, CreateReelRequest{
		ProductID: &own.ID,
		VideoURL:  "https://cdn.kiva.shop/reels/bowl.mp4",
	})
	require.NoError(t, err)
	require.NotNil(t, dto.ProductID)
	assert.Equal(t, own.ID, *dto.ProductID)
}

func TestDeleteReelScopesOwnershipAndCascades(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	sellerID := uuid.New()
	reel := seedReel(t, db, sellerID)

	_, err := svc.ToggleLike(context.Background(), uuid.New(), reel.ID)
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), uuid.New(), reel.ID, CreateCommentRequest{Body: "hello"})
	require.NoError(t, err)

	err = svc.DeleteReel(context.Background(), uuid.New(), reel.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.DeleteReel(context.Background(), sellerID, reel.ID))

	var likes, comments int64
	require.NoError(t, db.Model(&models.ReelLike{}).Where("reel_id = ?", reel.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&models.ReelComment{}).Where("reel_id = ?", reel.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestListReelsPaginates(t *testing.T) {
	db := setupReelTestDB(t)
	svc := newReelService(t, db)
	sellerID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		reel := &models.Reel{
			ID:        uuid.New(),
			SellerID:  sellerID,
			VideoURL:  "https://cdn.kiva.shop/reels/clip.mp4",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(reel).Error)
	}

	page, err := svc.List(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(context.Background(), ListParams{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)
}
