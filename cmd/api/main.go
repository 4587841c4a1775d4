package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vizailabs/vizboost-backend/api/routes"
	"github.com/vizailabs/vizboost-backend/internal/auth"
	checkoutsvc "github.com/vizailabs/vizboost-backend/internal/checkout"
	"github.com/vizailabs/vizboost-backend/internal/ledger"
	"github.com/vizailabs/vizboost-backend/internal/orders"
	"github.com/vizailabs/vizboost-backend/internal/products"
	"github.com/vizailabs/vizboost-backend/internal/settlement"
	"github.com/vizailabs/vizboost-backend/internal/studio"
	"github.com/vizailabs/vizboost-backend/internal/users"
	"github.com/vizailabs/vizboost-backend/pkg/auth/session"
	"github.com/vizailabs/vizboost-backend/pkg/config"
	"github.com/vizailabs/vizboost-backend/pkg/db"
	"github.com/vizailabs/vizboost-backend/pkg/logger"
	"github.com/vizailabs/vizboost-backend/pkg/metrics"
	"github.com/vizailabs/vizboost-backend/pkg/migrate"
	"github.com/vizailabs/vizboost-backend/pkg/redis"
	"github.com/vizailabs/vizboost-backend/pkg/renderapi"
	"github.com/vizailabs/vizboost-backend/pkg/stripe"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	renderRepo := studio.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(dbClient, ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(dbClient, productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	if cfg.Features.SeedCatalog {
		if err := productService.Seed(context.Background(), products.DefaultCatalog()); err != nil {
			logg.Error(context.Background(), "failed to seed catalog", err)
			os.Exit(1)
		}
	}

	checkoutService, err := checkoutsvc.NewService(
		productService,
		orderService,
		checkoutsvc.NewStripeClient(stripeClient),
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		TransactionRunner: dbClient,
		LedgerRepo:        ledgerRepo,
		OrderService:      orderService,
		Metrics:           settlementMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	settlementGuard, err := settlement.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement guard", err)
		os.Exit(1)
	}

	renderOpts := []renderapi.Option{renderapi.WithTimeout(cfg.Studio.ProviderTimeout)}
	if cfg.Studio.ProviderURL != "" {
		renderOpts = append(renderOpts, renderapi.WithBaseURL(cfg.Studio.ProviderURL))
	}
	renderClient, err := renderapi.NewClient(cfg.Studio.ProviderAPIKey, renderOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create render client", err)
		os.Exit(1)
	}

	studioService, err := studio.NewService(studio.ServiceParams{
		Ledger:   ledgerService,
		Provider: renderClient,
		Repo:     renderRepo,
		Config:   cfg.Studio,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create studio service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"instance":   id,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			SessionManager: sessionManager,
			Registry:       registry,

			AuthService:     authService,
			RegisterService: registerService,
			ProductService:  productService,
			CheckoutService: checkoutService,
			LedgerService:   ledgerService,
			StudioService:   studioService,
			UserRepo:        userRepo,
			OrderRepo:       orderRepo,

			StripeClient:    stripeClient,
			SettlementSvc:   settlementService,
			SettlementGuard: settlementGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
