package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vizailabs/vizboost-backend/api/controllers"
	webhookcontrollers "github.com/vizailabs/vizboost-backend/api/controllers/webhooks"
	"github.com/vizailabs/vizboost-backend/api/middleware"
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
	"github.com/vizailabs/vizboost-backend/pkg/redis"
	"github.com/vizailabs/vizboost-backend/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionManager sessionManager
	Registry       *prometheus.Registry

	AuthService     auth.Service
	RegisterService auth.RegisterService
	ProductService  products.Service
	CheckoutService checkoutsvc.Service
	LedgerService   ledger.Service
	StudioService   studio.Service
	UserRepo        *users.Repository
	OrderRepo       orders.Repository

	StripeClient    *stripe.Client
	SettlementSvc   *settlement.Service
	SettlementGuard *settlement.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.SettlementSvc, deps.StripeClient, deps.SettlementGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Get("/api/v1/products", controllers.ListProducts(deps.ProductService, logg))

	// guest checkout keeps working without a token
	r.With(middleware.OptionalAuth(cfg.JWT, deps.SessionManager, logg)).
		Post("/api/v1/checkout", controllers.Checkout(deps.CheckoutService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(deps.LedgerService, logg))
			r.Post("/spend", controllers.WalletSpend(deps.LedgerService, logg))
			r.Get("/transactions", controllers.WalletTransactions(deps.LedgerService, logg))
		})

		r.Route("/studio", func(r chi.Router) {
			r.Post("/render", controllers.StudioRender(deps.StudioService, logg))
			r.Get("/renders", controllers.StudioRenders(deps.StudioService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Get("/stats", controllers.AdminStats(deps.UserRepo, deps.OrderRepo, deps.StudioService, logg))
			r.Get("/users", controllers.AdminUsers(deps.UserRepo, logg))
			r.Get("/orders", controllers.AdminOrders(deps.OrderRepo, logg))
			r.Post("/users/{userId}/credits", controllers.AdminGrantCredits(deps.LedgerService, logg))
			r.Post("/users/{userId}/role", controllers.AdminUpdateRole(deps.UserRepo, logg))
			r.Get("/renders", controllers.AdminRenders(deps.StudioService, logg))
		})
	})

	return r
}
