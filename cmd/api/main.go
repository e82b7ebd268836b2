package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kivahq/kiva-backend/api/controllers"
	"github.com/kivahq/kiva-backend/api/routes"
	"github.com/kivahq/kiva-backend/internal/address"
	"github.com/kivahq/kiva-backend/internal/auth"
	"github.com/kivahq/kiva-backend/internal/cart"
	"github.com/kivahq/kiva-backend/internal/catalog"
	"github.com/kivahq/kiva-backend/internal/media"
	"github.com/kivahq/kiva-backend/internal/orders"
	paymentsvc "github.com/kivahq/kiva-backend/internal/payments"
	"github.com/kivahq/kiva-backend/internal/reels"
	"github.com/kivahq/kiva-backend/internal/sellers"
	"github.com/kivahq/kiva-backend/internal/users"
	"github.com/kivahq/kiva-backend/internal/wishlist"
	"github.com/kivahq/kiva-backend/pkg/auth/session"
	"github.com/kivahq/kiva-backend/pkg/config"
	"github.com/kivahq/kiva-backend/pkg/db"
	"github.com/kivahq/kiva-backend/pkg/logger"
	"github.com/kivahq/kiva-backend/pkg/metrics"
	"github.com/kivahq/kiva-backend/pkg/migrate"
	"github.com/kivahq/kiva-backend/pkg/outbox"
	"github.com/kivahq/kiva-backend/pkg/payments"
	"github.com/kivahq/kiva-backend/pkg/redis"
	"github.com/kivahq/kiva-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}

	paymentsClient, err := payments.NewClient(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnError(logg, "failed to create auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	exitOnError(logg, "failed to create register service", err)

	catalogService, err := catalog.NewService(catalogRepo)
	exitOnError(logg, "failed to create catalog service", err)

	cartService, err := cart.NewService(cartRepo, catalogRepo)
	exitOnError(logg, "failed to create cart service", err)

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), catalogRepo)
	exitOnError(logg, "failed to create wishlist service", err)

	addressService, err := address.NewService(dbClient, addressRepo)
	exitOnError(logg, "failed to create address service", err)

	orderService, err := orders.NewService(dbClient, orderRepo, cartRepo, addressRepo, outboxService, cfg.Checkout, logg)
	exitOnError(logg, "failed to create order service", err)

	paymentService, err := paymentsvc.NewService(dbClient, orderRepo, userRepo, paymentsClient, outboxService, logg)
	exitOnError(logg, "failed to create payment service", err)

	reelService, err := reels.NewService(reels.NewRepository(gormDB), catalogRepo)
	exitOnError(logg, "failed to create reel service", err)

	mediaService, err := media.NewService(gcsClient, cfg.GCS)
	exitOnError(logg, "failed to create media service", err)

	sellerService, err := sellers.NewService(sellers.NewRepository(gormDB))
	exitOnError(logg, "failed to create seller service", err)

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		HTTPMetrics:    metrics.NewHTTPMetrics(),
		Redis:          redisClient,
		SessionChecker: sessionManager,
		HealthChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  gcsClient,
		},
		AuthService:     authService,
		RegisterService: registerService,
		CatalogService:  catalogService,
		CartService:     cartService,
		WishlistService: wishlistService,
		AddressService:  addressService,
		OrderService:    orderService,
		PaymentService:  paymentService,
		ReelService:     reelService,
		MediaService:    mediaService,
		SellerService:   sellerService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
