package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/kivahq/kiva-backend/pkg/auth"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/enums"
)

type fakeSessionChecker struct {
	active map[string]bool
	err    error
}

func (f *fakeSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[accessID], nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "kiva-test",
		ExpirationMinutes: 15,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole, jti string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := testJWTConfig()
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	token, _ := mintTestToken(t, cfg, enums.UserRoleCustomer, "revoked-jti")
	checker := &fakeSessionChecker{active: map[string]bool{}}

	handler := Auth(cfg, checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	token, userID := mintTestToken(t, cfg, enums.UserRoleSeller, "live-jti")
	checker := &fakeSessionChecker{active: map[string]bool{"live-jti": true}}

	var gotUserID, gotRole string
	handler := Auth(cfg, checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != userID.String() {
		t.Fatalf("expected user id %s, got %s", userID, gotUserID)
	}
	if gotRole != string(enums.UserRoleSeller) {
		t.Fatalf("expected role seller, got %s", gotRole)
	}
}

func TestRequireRoleForbidsMismatch(t *testing.T) {
	handler := RequireRole(string(enums.UserRoleAdmin), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/sellers", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCustomer)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
