package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketloft-backend/api/controllers"
	"github.com/angelmondragon/marketloft-backend/api/middleware"
	authsvc "github.com/angelmondragon/marketloft-backend/internal/auth"
	billingsvc "github.com/angelmondragon/marketloft-backend/internal/billing"
	cartsvc "github.com/angelmondragon/marketloft-backend/internal/cart"
	subscriptionsvc "github.com/angelmondragon/marketloft-backend/internal/subscriptions"
	"github.com/angelmondragon/marketloft-backend/pkg/auth/session"
	"github.com/angelmondragon/marketloft-backend/pkg/bigquery"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/db"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
	"github.com/angelmondragon/marketloft-backend/pkg/metrics"
	"github.com/angelmondragon/marketloft-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	BigQuery bigquery.Pinger

	SessionChecker session.AccessSessionChecker

	AuthService          authsvc.Service
	CartService          cartsvc.Service
	SubscriptionsService subscriptionsvc.Service
	BillingService       *billingsvc.Service

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(params.HTTPMetrics),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis, params.BigQuery))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, params.Redis, logg),
			middleware.Idempotency(params.Redis, logg),
		).Post("/register", controllers.AuthRegister(params.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.Redis, logg)).Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, params.SessionChecker, logg)).Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Use(middleware.Idempotency(params.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(params.CartService, logg))
			r.Post("/items", controllers.CartAddItem(params.CartService, logg))
			r.Patch("/items/{productId}", controllers.CartAdjustItem(params.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(params.CartService, logg))
			r.Post("/clear", controllers.CartClear(params.CartService, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.PlanList(params.BillingService, logg))
			r.Get("/{planId}", controllers.PlanDetail(params.BillingService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionFetch(params.SubscriptionsService, logg))
			r.Post("/", controllers.SubscriptionCreate(params.SubscriptionsService, logg))
			r.Post("/cancel", controllers.SubscriptionCancel(params.SubscriptionsService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(params.BillingService, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(params.BillingService, logg))
			r.Get("/{invoiceId}/download", controllers.InvoiceDownload(params.BillingService, logg))
		})
	})

	return r
}
