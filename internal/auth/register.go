package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/internal/users"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/security"
)

// RegisterService handles account creation.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type sellerProfileCreator interface {
	Create(ctx context.Context, profile *models.SellerProfile) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
// The repo factories bind repositories to the registration transaction.
type RegisterServiceParams struct {
	TxRunner             txRunner
	UserRepoFactory      func(tx *gorm.DB) registerUserRepository
	SellerProfileFactory func(tx *gorm.DB) sellerProfileCreator
	PasswordConfig       config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	sellerRepos func(tx *gorm.DB) sellerProfileCreator
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.SellerProfileFactory == nil {
		params.SellerProfileFactory = func(tx *gorm.DB) sellerProfileCreator {
			return gormSellerProfileRepo{db: tx}
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		sellerRepos: params.SellerProfileFactory,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	role := enums.UserRoleCustomer
	if req.Role != "" {
		parsed, err := enums.ParseUserRole(req.Role)
		if err != nil || parsed == enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		role = parsed
	}

	shopName := strings.TrimSpace(req.ShopName)
	if role == enums.UserRoleSeller && shopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop_name is required for sellers")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Name:         strings.TrimSpace(req.Name),
			Phone:        req.Phone,
			Role:         role,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if role == enums.UserRoleSeller {
			profile := &models.SellerProfile{
				UserID:   user.ID,
				ShopName: shopName,
				Status:   enums.SellerStatusPending,
			}
			if err := s.sellerRepos(tx).Create(ctx, profile); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller profile")
			}
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return users.FromModel(created), nil
}

type gormSellerProfileRepo struct {
	db *gorm.DB
}

func (r gormSellerProfileRepo) Create(ctx context.Context, profile *models.SellerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}
