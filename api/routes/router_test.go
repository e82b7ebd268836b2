package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kivahq/kiva-backend/api/controllers"
	"github.com/kivahq/kiva-backend/internal/address"
	authsvc "github.com/kivahq/kiva-backend/internal/auth"
	"github.com/kivahq/kiva-backend/internal/cart"
	"github.com/kivahq/kiva-backend/internal/catalog"
	"github.com/kivahq/kiva-backend/internal/media"
	"github.com/kivahq/kiva-backend/internal/orders"
	paymentsvc "github.com/kivahq/kiva-backend/internal/payments"
	"github.com/kivahq/kiva-backend/internal/reels"
	"github.com/kivahq/kiva-backend/internal/sellers"
	"github.com/kivahq/kiva-backend/internal/users"
	"github.com/kivahq/kiva-backend/internal/wishlist"
	pkgauth "github.com/kivahq/kiva-backend/pkg/auth"
	"github.com/kivahq/kiva-backend/pkg/auth/session"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/enums"
	"github.com/kivahq/kiva-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.RefreshResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req authsvc.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListPublic(ctx context.Context, params catalog.ListParams) (*catalog.ProductPage, error) {
	return &catalog.ProductPage{}, nil
}

func (stubCatalogService) GetPublic(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	return nil, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req catalog.CreateProductRequest) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req catalog.UpdateProductRequest) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

func (stubCatalogService) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	return nil
}

func (stubCatalogService) ListSellerProducts(ctx context.Context, sellerID uuid.UUID, params catalog.ListParams) (*catalog.ProductPage, error) {
	return &catalog.ProductPage{}, nil
}

type stubCartService struct{}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, req cart.AddItemRequest) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

func (stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

type stubWishlistService struct{}

func (stubWishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (*wishlist.ToggleResult, error) {
	return &wishlist.ToggleResult{}, nil
}

func (stubWishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (stubWishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (stubWishlistService) Contains(ctx context.Context, userID, productID uuid.UUID) (*wishlist.ContainsResult, error) {
	return &wishlist.ContainsResult{}, nil
}

func (stubWishlistService) List(ctx context.Context, userID uuid.UUID) (*wishlist.ListDTO, error) {
	return &wishlist.ListDTO{}, nil
}

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]address.AddressDTO, error) {
	return nil, nil
}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, req address.CreateAddressRequest) (*address.AddressDTO, error) {
	return &address.AddressDTO{}, nil
}

func (stubAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, req address.UpdateAddressRequest) (*address.AddressDTO, error) {
	return &address.AddressDTO{}, nil
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return nil
}

func (stubAddressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*address.AddressDTO, error) {
	return &address.AddressDTO{}, nil
}

type stubOrderService struct{}

func (stubOrderService) Create(ctx context.Context, userID uuid.UUID, req orders.CreateOrderRequest) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) List(ctx context.Context, userID uuid.UUID, params orders.ListParams) (*orders.OrderPage, error) {
	return &orders.OrderPage{}, nil
}

func (stubOrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (stubOrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

type stubPaymentService struct {
	webhook func(ctx context.Context, body []byte, signature string) error
}

func (stubPaymentService) Initiate(ctx context.Context, userID uuid.UUID, req paymentsvc.InitiateRequest) (*paymentsvc.CheckoutDTO, error) {
	return &paymentsvc.CheckoutDTO{}, nil
}

func (stubPaymentService) Confirm(ctx context.Context, userID uuid.UUID, req paymentsvc.ConfirmRequest) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (s stubPaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.webhook != nil {
		return s.webhook(ctx, body, signature)
	}
	return nil
}

type stubReelService struct{}

func (stubReelService) List(ctx context.Context, params reels.ListParams) (*reels.ReelPage, error) {
	return &reels.ReelPage{}, nil
}

func (stubReelService) Get(ctx context.Context, reelID uuid.UUID) (*reels.ReelDTO, error) {
	return &reels.ReelDTO{}, nil
}

func (stubReelService) ListComments(ctx context.Context, reelID uuid.UUID) ([]reels.CommentDTO, error) {
	return nil, nil
}

func (stubReelService) ToggleLike(ctx context.Context, userID, reelID uuid.UUID) (*reels.LikeResult, error) {
	return &reels.LikeResult{}, nil
}

func (stubReelService) AddComment(ctx context.Context, userID, reelID uuid.UUID, req reels.CreateCommentRequest) (*reels.CommentDTO, error) {
	return &reels.CommentDTO{}, nil
}

func (stubReelService) CreateReel(ctx context.Context, sellerID uuid.UUID, req reels.CreateReelRequest) (*reels.ReelDTO, error) {
	return &reels.ReelDTO{}, nil
}

func (stubReelService) DeleteReel(ctx context.Context, sellerID, reelID uuid.UUID) error {
	return nil
}

type stubMediaService struct{}

func (stubMediaService) Presign(ctx context.Context, sellerID uuid.UUID, req media.PresignRequest) (*media.PresignDTO, error) {
	return &media.PresignDTO{}, nil
}

type stubSellerService struct{}

func (stubSellerService) List(ctx context.Context, params sellers.ListParams) (*sellers.SellerPage, error) {
	return &sellers.SellerPage{}, nil
}

func (stubSellerService) Approve(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*sellers.SellerProfileDTO, error) {
	return &sellers.SellerProfileDTO{}, nil
}

func (stubSellerService) Reject(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*sellers.SellerProfileDTO, error) {
	return &sellers.SellerProfileDTO{}, nil
}

func (stubSellerService) Suspend(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*sellers.SellerProfileDTO, error) {
	return &sellers.SellerProfileDTO{}, nil
}

func (stubSellerService) Reset(ctx context.Context, adminID, sellerProfileID uuid.UUID) (*sellers.SellerProfileDTO, error) {
	return &sellers.SellerProfileDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		SessionChecker: stubSessionChecker{},
		HealthChecks: map[string]controllers.Pinger{
			"db": stubPinger{},
		},
		AuthService:     stubAuthService{},
		RegisterService: stubRegisterService{},
		CatalogService:  stubCatalogService{},
		CartService:     stubCartService{},
		WishlistService: stubWishlistService{},
		AddressService:  stubAddressService{},
		OrderService:    stubOrderService{},
		PaymentService:  stubPaymentService{},
		ReelService:     stubReelService{},
		MediaService:    stubMediaService{},
		SellerService:   stubSellerService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestReelFeedIsPublicButLikeIsNot(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	feed := httptest.NewRequest(http.MethodGet, "/api/v1/reels", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, feed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public reel feed got %d", resp.Code)
	}

	like := httptest.NewRequest(http.MethodPost, "/api/v1/reels/"+uuid.NewString()+"/like", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, like)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous like got %d", resp.Code)
	}

	liked := httptest.NewRequest(http.MethodPost, "/api/v1/reels/"+uuid.NewString()+"/like", nil)
	liked.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, liked)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated like got %d", resp.Code)
	}
}

func TestCustomerGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCustomerGroupAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated cart fetch got %d", resp.Code)
	}
}

func TestSellerGroupRequiresSellerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	seller := httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSeller))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for seller got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	seller := httptest.NewRequest(http.MethodGet, "/api/admin/v1/sellers", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/sellers", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestPaymentWebhookIsPublicAndRequiresSignature(t *testing.T) {
	router := newTestRouter(testConfig())

	unsigned := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, unsigned)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsigned webhook got %d", resp.Code)
	}

	signed := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(`{}`))
	signed.Header.Set("X-Webhook-Signature", "sig")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, signed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed webhook got %d", resp.Code)
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}
