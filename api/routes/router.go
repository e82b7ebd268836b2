package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kivahq/kiva-backend/api/controllers"
	"github.com/kivahq/kiva-backend/api/middleware"
	"github.com/kivahq/kiva-backend/internal/address"
	authsvc "github.com/kivahq/kiva-backend/internal/auth"
	"github.com/kivahq/kiva-backend/internal/cart"
	"github.com/kivahq/kiva-backend/internal/catalog"
	"github.com/kivahq/kiva-backend/internal/media"
	"github.com/kivahq/kiva-backend/internal/orders"
	paymentsvc "github.com/kivahq/kiva-backend/internal/payments"
	"github.com/kivahq/kiva-backend/internal/reels"
	"github.com/kivahq/kiva-backend/internal/sellers"
	"github.com/kivahq/kiva-backend/internal/wishlist"
	"github.com/kivahq/kiva-backend/pkg/auth/session"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/enums"
	"github.com/kivahq/kiva-backend/pkg/logger"
	"github.com/kivahq/kiva-backend/pkg/metrics"
	pkgredis "github.com/kivahq/kiva-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	HTTPMetrics *metrics.HTTPMetrics

	Redis          *pkgredis.Client
	SessionChecker session.AccessSessionChecker
	HealthChecks   map[string]controllers.Pinger

	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	CatalogService  catalog.Service
	CartService     cart.Service
	WishlistService wishlist.Service
	AddressService  address.Service
	OrderService    orders.Service
	PaymentService  paymentsvc.Service
	ReelService     reels.Service
	MediaService    media.Service
	SellerService   sellers.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	var idempotencyStore pkgredis.IdempotencyStore
	var rateLimitStore middleware.RateLimitStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		rateLimitStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	if deps.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.HTTPMetrics.Handler())
	}

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.CatalogListProducts(deps.CatalogService, logg))
		r.Get("/products/{productId}", controllers.CatalogGetProduct(deps.CatalogService, logg))
		r.Get("/categories", controllers.CatalogListCategories(deps.CatalogService, logg))
	})

	r.Route("/api/v1/reels", func(r chi.Router) {
		r.Get("/", controllers.ReelList(deps.ReelService, logg))
		r.Get("/{reelId}", controllers.ReelDetail(deps.ReelService, logg))
		r.Get("/{reelId}/comments", controllers.ReelComments(deps.ReelService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
			r.Post("/{reelId}/like", controllers.ReelLikeToggle(deps.ReelService, logg))
			r.Post("/{reelId}/comments", controllers.ReelCommentCreate(deps.ReelService, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(rateLimitStore, loginPolicy, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(rateLimitStore, registerPolicy, logg)).
			Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(deps.PaymentService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Post("/", controllers.CartAddItem(deps.CartService, logg))
			r.Patch("/{itemId}", controllers.CartUpdateQuantity(deps.CartService, logg))
			r.Delete("/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(deps.WishlistService, logg))
			r.Post("/", controllers.WishlistAdd(deps.WishlistService, logg))
			r.Post("/toggle", controllers.WishlistToggle(deps.WishlistService, logg))
			r.Delete("/{productId}", controllers.WishlistRemove(deps.WishlistService, logg))
			r.Get("/contains/{productId}", controllers.WishlistContains(deps.WishlistService, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(deps.AddressService, logg))
			r.Post("/", controllers.AddressCreate(deps.AddressService, logg))
			r.Patch("/{addressId}", controllers.AddressUpdate(deps.AddressService, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(deps.AddressService, logg))
			r.Post("/{addressId}/default", controllers.AddressSetDefault(deps.AddressService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrderService, logg))
			r.Post("/", controllers.OrderCreate(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrderService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.OrderService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.PaymentService, logg))
		r.Post("/payments/confirm", controllers.PaymentConfirm(deps.PaymentService, logg))

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleSeller), logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.SellerListProducts(deps.CatalogService, logg))
				r.Post("/", controllers.SellerCreateProduct(deps.CatalogService, logg))
				r.Patch("/{productId}", controllers.SellerUpdateProduct(deps.CatalogService, logg))
				r.Delete("/{productId}", controllers.SellerDeleteProduct(deps.CatalogService, logg))
			})

			r.Route("/reels", func(r chi.Router) {
				r.Post("/", controllers.SellerReelCreate(deps.ReelService, logg))
				r.Delete("/{reelId}", controllers.SellerReelDelete(deps.ReelService, logg))
			})

			r.Post("/media/presign", controllers.MediaPresign(deps.MediaService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/sellers", func(r chi.Router) {
			r.Get("/", controllers.AdminSellerList(deps.SellerService, logg))
			r.Post("/{sellerId}/approve", controllers.AdminSellerApprove(deps.SellerService, logg))
			r.Post("/{sellerId}/reject", controllers.AdminSellerReject(deps.SellerService, logg))
			r.Post("/{sellerId}/suspend", controllers.AdminSellerSuspend(deps.SellerService, logg))
			r.Post("/{sellerId}/reset", controllers.AdminSellerReset(deps.SellerService, logg))
		})
	})

	return r
}
