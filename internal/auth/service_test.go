package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/kivahq/kiva-backend/pkg/auth"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/db/models"
	"github.com/kivahq/kiva-backend/pkg/enums"
	pkgerrors "github.com/kivahq/kiva-backend/pkg/errors"
	"github.com/kivahq/kiva-backend/pkg/security"
)

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s *stubUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubSessionManager struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, _ string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "new-" + oldAccessID, "rotated-token", nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testAuthJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "auth-test-secret",
		Issuer:            "kiva-test",
		ExpirationMinutes: 15,
	}
}

func newTestUser(t *testing.T, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: hash,
		Name:         "Shopper",
		Role:         role,
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	user := newTestUser(t, "correct horse", enums.UserRoleCustomer)
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      testAuthJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.generated))
	}

	claims, err := pkgAuth.ParseAccessToken(testAuthJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != sessions.generated[0] {
		t.Fatalf("jti %s does not match stored session %s", claims.ID, sessions.generated[0])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := newTestUser(t, "correct horse", enums.UserRoleCustomer)
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testAuthJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{err: gorm.ErrRecordNotFound},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testAuthJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshMintsNewPair(t *testing.T) {
	t.Parallel()

	cfg := testAuthJWTConfig()
	user := newTestUser(t, "correct horse", enums.UserRoleSeller)
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      cfg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != "rotated-token" {
		t.Fatalf("unexpected refresh token %s", refreshed.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleSeller {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != "new-"+sessions.generated[0] {
		t.Fatalf("expected rotated jti, got %s", claims.ID)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	t.Parallel()

	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{},
		SessionManager: &stubSessionManager{},
		JWTConfig:      testAuthJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: "junk", RefreshToken: "junk"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{},
		SessionManager: sessions,
		JWTConfig:      testAuthJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-123" {
		t.Fatalf("expected session revoked, got %+v", sessions.revoked)
	}

	err = svc.Logout(context.Background(), " ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
