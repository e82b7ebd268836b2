package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kivahq/kiva-backend/internal/users"
	"github.com/kivahq/kiva-backend/pkg/config"
	pkgmodels "github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data    map[string]*pkgmodels.User
	created *pkgmodels.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*pkgmodels.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(_ context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

type stubSellerProfileRepo struct {
	created *pkgmodels.SellerProfile
}

func (s *stubSellerProfileRepo) Create(_ context.Context, profile *pkgmodels.SellerProfile) error {
	s.created = profile
	return nil
}

type registerTestSetup struct {
	service    RegisterService
	userRepo   *stubRegisterUserRepo
	sellerRepo *stubSellerProfileRepo
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	sellerRepo := &stubSellerProfileRepo{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		SellerProfileFactory: func(tx *gorm.DB) sellerProfileCreator {
			return sellerRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{service: svc, userRepo: userRepo, sellerRepo: sellerRepo}
}

func TestRegisterCreatesCustomer(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Jamie Rivera",
		Email:    "New@Example.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if setup.userRepo.created.Email != "new@example.com" {
		t.Fatalf("expected normalized email, got %s", setup.userRepo.created.Email)
	}
	if dto.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", dto.Role)
	}
	if setup.sellerRepo.created != nil {
		t.Fatalf("customers should not get a seller profile")
	}
}

func TestRegisterCreatesSellerWithPendingProfile(t *testing.T) {
	setup := newRegisterTestSetup(t)

	dto, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Sam Vendor",
		Email:    "seller@example.com",
		Password: "Secret123!",
		Role:     "seller",
		ShopName: "Sam's Goods",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if dto.Role != enums.UserRoleSeller {
		t.Fatalf("expected seller role, got %s", dto.Role)
	}
	profile := setup.sellerRepo.created
	if profile == nil {
		t.Fatalf("expected seller profile to be created")
	}
	if profile.UserID != setup.userRepo.created.ID {
		t.Fatalf("profile not linked to created user")
	}
	if profile.ShopName != "Sam's Goods" {
		t.Fatalf("unexpected shop name %s", profile.ShopName)
	}
	if profile.Status != enums.SellerStatusPending {
		t.Fatalf("expected pending status, got %s", profile.Status)
	}
	if profile.IsVerified {
		t.Fatalf("new sellers must not start verified")
	}
}

func TestRegisterRejectsSellerWithoutShopName(t *testing.T) {
	setup := newRegisterTestSetup(t)

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Sam Vendor",
		Email:    "seller@example.com",
		Password: "Secret123!",
		Role:     "seller",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["taken@example.com"] = &pkgmodels.User{ID: uuid.New(), Email: "taken@example.com"}

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Jamie",
		Email:    "taken@example.com",
		Password: "Secret123!",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	setup := newRegisterTestSetup(t)

	_, err := setup.service.Register(context.Background(), RegisterRequest{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "Secret123!",
		Role:     "admin",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
