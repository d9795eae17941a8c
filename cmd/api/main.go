package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweetdelights/bakery-backend/api/routes"
	"github.com/sweetdelights/bakery-backend/internal/analytics"
	"github.com/sweetdelights/bakery-backend/internal/analytics/query"
	"github.com/sweetdelights/bakery-backend/internal/auth"
	cartsvc "github.com/sweetdelights/bakery-backend/internal/cart"
	"github.com/sweetdelights/bakery-backend/internal/categories"
	checkoutsvc "github.com/sweetdelights/bakery-backend/internal/checkout"
	"github.com/sweetdelights/bakery-backend/internal/enquiries"
	"github.com/sweetdelights/bakery-backend/internal/media"
	"github.com/sweetdelights/bakery-backend/internal/notifications"
	"github.com/sweetdelights/bakery-backend/internal/orders"
	"github.com/sweetdelights/bakery-backend/internal/pricing"
	product "github.com/sweetdelights/bakery-backend/internal/products"
	"github.com/sweetdelights/bakery-backend/internal/slideshow"
	"github.com/sweetdelights/bakery-backend/internal/users"
	"github.com/sweetdelights/bakery-backend/pkg/auth/session"
	"github.com/sweetdelights/bakery-backend/pkg/bigquery"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/metrics"
	"github.com/sweetdelights/bakery-backend/pkg/migrate"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/redis"
	"github.com/sweetdelights/bakery-backend/pkg/storage/gcs"
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
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	// The dashboard drops its sales KPIs when the warehouse is unreachable.
	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.WarnErr(context.Background(), "bigquery unavailable, dashboard sales disabled", err)
		bqClient = nil
	} else {
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery client", err)
			}
		}()
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(reg)

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, gcsClient, bqClient, sessionManager, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.Metrics = reg

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gcsClient *gcs.Client,
	bqClient *bigquery.Client,
	sessionManager *session.Manager,
	storeMetrics *metrics.StoreMetrics,
) (routes.Dependencies, error) {
	deps := routes.Dependencies{
		DB:       dbClient,
		Redis:    redisClient,
		Storage:  gcsClient,
		Sessions: sessionManager,
	}
	gormDB := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gormDB), logg)
	resolver := pricing.NewResolver(cfg.Storefront.CurrencySymbol)

	userRepo := users.NewRepository(gormDB)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:           userRepo,
		SessionManager:     sessionManager,
		JWTConfig:          cfg.JWT,
		PasswordConfig:     cfg.Password,
		AllowAdminRegister: cfg.FeatureFlags.AllowAdminRegister,
		Logger:             logg,
	})
	if err != nil {
		return deps, err
	}
	deps.Auth = authService

	if deps.Profiles, err = users.NewProfileService(userRepo); err != nil {
		return deps, err
	}

	mediaService, err := media.NewService(gcsClient, cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		return deps, err
	}
	deps.Media = mediaService

	productRepo := product.NewRepository(gormDB)
	if deps.Products, err = product.NewService(product.ServiceParams{
		Repo:      productRepo,
		Presenter: product.Presenter{Resolver: resolver, DefaultImageURL: cfg.Storefront.DefaultImageURL},
		Images:    mediaService,
		Logger:    logg,
	}); err != nil {
		return deps, err
	}

	if deps.Categories, err = categories.NewService(categories.ServiceParams{
		Repo:    categories.NewRepository(gormDB),
		Metrics: storeMetrics,
		Logger:  logg,
	}); err != nil {
		return deps, err
	}

	if deps.Slideshow, err = slideshow.NewService(slideshow.ServiceParams{
		Repo:    slideshow.NewRepository(gormDB),
		Images:  mediaService,
		Metrics: storeMetrics,
		Logger:  logg,
	}); err != nil {
		return deps, err
	}

	guestCarts, err := cartsvc.NewGuestRepository(redisClient, cfg.Storefront.GuestCartTTL)
	if err != nil {
		return deps, err
	}
	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Products:        productRepo,
		Profiles:        cartsvc.NewProfileRepository(gormDB),
		Guests:          guestCarts,
		Resolver:        resolver,
		DefaultImageURL: cfg.Storefront.DefaultImageURL,
		Metrics:         storeMetrics,
		Logger:          logg,
	})
	if err != nil {
		return deps, err
	}
	deps.Cart = cartService

	ordersRepo := orders.NewRepository(gormDB)
	if deps.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:   ordersRepo,
		Tx:     dbClient,
		Outbox: emitter,
		Logger: logg,
	}); err != nil {
		return deps, err
	}

	if deps.Checkout, err = checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:   cartService,
		Orders:  ordersRepo,
		Tx:      dbClient,
		Outbox:  emitter,
		Metrics: storeMetrics,
		Logger:  logg,
	}); err != nil {
		return deps, err
	}

	if deps.Enquiries, err = enquiries.NewService(enquiries.ServiceParams{
		Repo:     enquiries.NewRepository(gormDB),
		Products: productRepo,
		Limiter:  redisClient,
		RateLimit: enquiries.RateLimit{
			Limit:  cfg.RateLimit.EnquiryIPLimit,
			Window: cfg.RateLimit.EnquiryWindow,
		},
		Tx:     dbClient,
		Outbox: emitter,
		Logger: logg,
	}); err != nil {
		return deps, err
	}

	if deps.Notifications, err = notifications.NewService(notifications.NewRepository(gormDB)); err != nil {
		return deps, err
	}

	var sales query.SalesService
	if bqClient != nil {
		if sales, err = query.NewSalesService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.SalesTable); err != nil {
			return deps, err
		}
	}
	if deps.Dashboard, err = analytics.NewService(analytics.ServiceParams{
		Counts: analytics.NewCountsRepository(gormDB),
		Sales:  sales,
		Logger: logg,
	}); err != nil {
		return deps, err
	}
	return deps, nil
}
