package reels

import (
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/pkg/db/models"
)

type ReelDTO struct {
	ID           uuid.UUID  `json:"id"`
	SellerID     uuid.UUID  `json:"seller_id"`
	ProductID    *uuid.UUID `json:"product_id,omitempty"`
	VideoURL     string     `json:"video_url"`
	Caption      *string    `json:"caption,omitempty"`
	LikeCount    int64      `json:"like_count"`
	CommentCount int64      `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	ReelID    uuid.UUID `json:"reel_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateReelRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	VideoURL  string     `json:"video_url" validate:"required,url"`
	Caption   *string    `json:"caption,omitempty"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

type LikeResult struct {
	ReelID    uuid.UUID `json:"reel_id"`
	Liked     bool      `json:"liked"`
	LikeCount int64     `json:"like_count"`
}

type ListParams struct {
	Cursor string
	Limit  int
}

type ReelPage struct {
	Items      []ReelDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func fromReelModel(m *models.Reel, likeCount, commentCount int64) *ReelDTO {
	if m == nil {
		return nil
	}
	return &ReelDTO{
		ID:           m.ID,
		SellerID:     m.SellerID,
		ProductID:    m.ProductID,
		VideoURL:     m.VideoURL,
		Caption:      m.Caption,
		LikeCount:    likeCount,
		CommentCount: commentCount,
		CreatedAt:    m.CreatedAt,
	}
}

func fromCommentModel(m *models.ReelComment) *CommentDTO {
	if m == nil {
		return nil
	}
	return &CommentDTO{
		ID:        m.ID,
		ReelID:    m.ReelID,
		UserID:    m.UserID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
