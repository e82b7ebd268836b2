package reels

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/pagination"
)

// Repository persists reels, likes, and comments. Counts are computed by
// counting rows rather than maintaining counters.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateReel(ctx context.Context, reel *models.Reel) error {
	if reel.ID == uuid.Nil {
		reel.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(reel).Error
}

func (r *Repository) FindReelByID(ctx context.Context, id uuid.UUID) (*models.Reel, error) {
	var reel models.Reel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reel).Error
	if err != nil {
		return nil, err
	}
	return &reel, nil
}

func (r *Repository) ListReels(ctx context.Context, params ListParams) ([]models.Reel, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Reel{})
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

	var reels []models.Reel
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&reels).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(reels) > limit {
		reels = reels[:limit]
		last := reels[len(reels)-1]
		next = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return reels, next, nil
}

// DeleteReel removes the seller's own reel along with its likes and
// comments. A foreign reel id reports not found.
func (r *Repository) DeleteReel(ctx context.Context, sellerID, reelID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", reelID, sellerID).
		Delete(&models.Reel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := r.db.WithContext(ctx).Where("reel_id = ?", reelID).Delete(&models.ReelLike{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("reel_id = ?", reelID).Delete(&models.ReelComment{}).Error
}

// AddLike records the like if the pair is new; duplicates are ignored.
func (r *Repository) AddLike(ctx context.Context, reelID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO reel_likes (id, reel_id, user_id, created_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (reel_id, user_id) DO NOTHING`,
		uuid.New(), reelID, userID,
	).Error
}

func (r *Repository) RemoveLike(ctx context.Context, reelID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("reel_id = ? AND user_id = ?", reelID, userID).
		Delete(&models.ReelLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) HasLike(ctx context.Context, reelID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReelLike{}).
		Where("reel_id = ? AND user_id = ?", reelID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CountLikes(ctx context.Context, reelID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReelLike{}).
		Where("reel_id = ?", reelID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateComment(ctx context.Context, comment *models.ReelComment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *Repository) ListComments(ctx context.Context, reelID uuid.UUID) ([]models.ReelComment, error) {
	var comments []models.ReelComment
	err := r.db.WithContext(ctx).
		Where("reel_id = ?", reelID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *Repository) CountComments(ctx context.Context, reelID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReelComment{}).
		Where("reel_id = ?", reelID).
		Count(&count).Error
	return count, err
}
