package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/angelmondragon/marketloft-backend/internal/auth"
	cartsvc "github.com/angelmondragon/marketloft-backend/internal/cart"
	pkgauth "github.com/angelmondragon/marketloft-backend/pkg/auth"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
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

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.LoginResponse, error) {
	return nil, nil
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return nil, nil
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.TokenPair, error) {
	return nil, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New(), OwnerID: ownerID}, nil
}

func (stubCartService) AddItem(ctx context.Context, ownerID uuid.UUID, input cartsvc.AddItemInput) (*models.Cart, error) {
	return nil, nil
}

func (stubCartService) AdjustQuantity(ctx context.Context, ownerID, productID uuid.UUID, delta int) (*models.Cart, error) {
	return nil, nil
}

func (stubCartService) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error) {
	return nil, nil
}

func (stubCartService) Clear(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	return nil, nil
}

type stubSubscriptionService struct{}

func (stubSubscriptionService) GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (stubSubscriptionService) Create(ctx context.Context, userID uuid.UUID, planID string) (*models.Subscription, error) {
	return nil, nil
}

func (stubSubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   stubPinger{},
		SessionChecker:       stubSessionChecker{},
		AuthService:          stubAuthService{},
		CartService:          stubCartService{},
		SubscriptionsService: stubSubscriptionService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestSubscriptionFetchWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for subscription fetch got %d", resp.Code)
	}
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

func TestMetricsHiddenWithoutRegistry(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a registry got %d", resp.Code)
	}
}
