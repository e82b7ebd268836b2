package reels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/pkg/db/models"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

// Service exposes the reel feed plus its like and comment operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ReelPage, error)
	Get(ctx context.Context, reelID uuid.UUID) (*ReelDTO, error)
	ListComments(ctx context.Context, reelID uuid.UUID) ([]CommentDTO, error)
	ToggleLike(ctx context.Context, userID, reelID uuid.UUID) (*LikeResult, error)
	AddComment(ctx context.Context, userID, reelID uuid.UUID, req CreateCommentRequest) (*CommentDTO, error)
	CreateReel(ctx context.Context, sellerID uuid.UUID, req CreateReelRequest) (*ReelDTO, error)
	DeleteReel(ctx context.Context, sellerID, reelID uuid.UUID) error
}

type repository interface {
	CreateReel(ctx context.Context, reel *models.Reel) error
	FindReelByID(ctx context.Context, id uuid.UUID) (*models.Reel, error)
	ListReels(ctx context.Context, params ListParams) ([]models.Reel, string, error)
	DeleteReel(ctx context.Context, sellerID, reelID uuid.UUID) error
	AddLike(ctx context.Context, reelID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, reelID, userID uuid.UUID) (bool, error)
	HasLike(ctx context.Context, reelID, userID uuid.UUID) (bool, error)
	CountLikes(ctx context.Context, reelID uuid.UUID) (int64, error)
	CreateComment(ctx context.Context, comment *models.ReelComment) error
	ListComments(ctx context.Context, reelID uuid.UUID) ([]models.ReelComment, error)
	CountComments(ctx context.Context, reelID uuid.UUID) (int64, error)
}

type productFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     repository
	products productFinder
}

// NewService constructs the reel service.
func NewService(repo repository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reel repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ReelPage, error) {
	reels, next, err := s.repo.ListReels(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reels")
	}
	page := &ReelPage{Items: make([]ReelDTO, 0, len(reels)), NextCursor: next}
	for i := range reels {
		dto, err := s.decorate(ctx, &reels[i])
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *dto)
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, reelID uuid.UUID) (*ReelDTO, error) {
	reel, err := s.loadReel(ctx, reelID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, reel)
}

func (s *service) ListComments(ctx context.Context, reelID uuid.UUID) ([]CommentDTO, error) {
	if _, err := s.loadReel(ctx, reelID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, reelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reel comments")
	}
	out := make([]CommentDTO, 0, len(comments))
	for i := range comments {
		out = append(out, *fromCommentModel(&comments[i]))
	}
	return out, nil
}

// ToggleLike flips the caller's like on the reel and returns the fresh count.
func (s *service) ToggleLike(ctx context.Context, userID, reelID uuid.UUID) (*LikeResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.loadReel(ctx, reelID); err != nil {
		return nil, err
	}

	liked, err := s.repo.HasLike(ctx, reelID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check reel like")
	}

	if liked {
		if _, err := s.repo.RemoveLike(ctx, reelID, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove reel like")
		}
	} else {
		if err := s.repo.AddLike(ctx, reelID, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add reel like")
		}
	}

	count, err := s.repo.CountLikes(ctx, reelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reel likes")
	}
	return &LikeResult{ReelID: reelID, Liked: !liked, LikeCount: count}, nil
}

func (s *service) AddComment(ctx context.Context, userID, reelID uuid.UUID, req CreateCommentRequest) (*CommentDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment body must not be empty")
	}
	if _, err := s.loadReel(ctx, reelID); err != nil {
		return nil, err
	}

	comment := &models.ReelComment{ReelID: reelID, UserID: userID, Body: body}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reel comment")
	}
	return fromCommentModel(comment), nil
}

func (s *service) CreateReel(ctx context.Context, sellerID uuid.UUID, req CreateReelRequest) (*ReelDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "video_url required")
	}

	if req.ProductID != nil {
		product, err := s.products.FindProductByID(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if product.SellerID != sellerID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
	}

	reel := &models.Reel{
		SellerID:  sellerID,
		ProductID: req.ProductID,
		VideoURL:  strings.TrimSpace(req.VideoURL),
		Caption:   req.Caption,
	}
	if err := s.repo.CreateReel(ctx, reel); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reel")
	}
	return fromReelModel(reel, 0, 0), nil
}

func (s *service) DeleteReel(ctx context.Context, sellerID, reelID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.DeleteReel(ctx, sellerID, reelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reel not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete reel")
	}
	return nil
}

func (s *service) loadReel(ctx context.Context, reelID uuid.UUID) (*models.Reel, error) {
	reel, err := s.repo.FindReelByID(ctx, reelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reel not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reel")
	}
	return reel, nil
}

func (s *service) decorate(ctx context.Context, reel *models.Reel) (*ReelDTO, error) {
	likes, err := s.repo.CountLikes(ctx, reel.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reel likes")
	}
	comments, err := s.repo.CountComments(ctx, reel.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reel comments")
	}
	return fromReelModel(reel, likes, comments), nil
}
