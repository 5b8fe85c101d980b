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

	"github.com/angelmondragon/marketloft-backend/api/routes"
	authsvc "github.com/angelmondragon/marketloft-backend/internal/auth"
	billingsvc "github.com/angelmondragon/marketloft-backend/internal/billing"
	cartsvc "github.com/angelmondragon/marketloft-backend/internal/cart"
	"github.com/angelmondragon/marketloft-backend/internal/products"
	subscriptionsvc "github.com/angelmondragon/marketloft-backend/internal/subscriptions"
	"github.com/angelmondragon/marketloft-backend/internal/users"
	"github.com/angelmondragon/marketloft-backend/pkg/auth/session"
	"github.com/angelmondragon/marketloft-backend/pkg/bigquery"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/db"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
	"github.com/angelmondragon/marketloft-backend/pkg/metrics"
	"github.com/angelmondragon/marketloft-backend/pkg/migrate"
	"github.com/angelmondragon/marketloft-backend/pkg/outbox"
	"github.com/angelmondragon/marketloft-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	var bqClient *bigquery.Client
	if cfg.GCP.ProjectID != "" {
		bqClient, err = bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	cartService, err := cartsvc.NewService(
		cartsvc.NewRepository(dbClient.DB()),
		products.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	billingService, err := billingsvc.NewService(billingsvc.ServiceParams{
		Repo:   billingsvc.NewRepository(dbClient.DB()),
		Events: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptionsvc.NewService(
		subscriptionsvc.NewRepository(dbClient.DB()),
		billingService,
		billingService,
		dbClient,
		outboxService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	var bqPinger bigquery.Pinger
	if bqClient != nil {
		bqPinger = bqClient
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		BigQuery: bqPinger,

		SessionChecker: sessionManager,

		AuthService:          authService,
		CartService:          cartService,
		SubscriptionsService: subscriptionsService,
		BillingService:       billingService,

		HTTPMetrics: httpMetrics,
		Registry:    registry,
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

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
