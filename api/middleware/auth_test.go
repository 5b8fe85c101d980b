package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/angelmondragon/marketloft-backend/pkg/auth"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
)

type stubSessionChecker struct {
	ok  bool
	err error

	checkedID string
}

func (s *stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	s.checkedID = accessID
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "marketloft",
		ExpirationMinutes: 30,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, jti string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "shopper@example.com",
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthAcceptsValidToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	accessID := uuid.NewString()
	checker := &stubSessionChecker{ok: true}

	var gotUserID, gotAccessID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotAccessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, userID, accessID))
	resp := httptest.NewRecorder()
	Auth(cfg, checker, nil)(inner).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if gotUserID != userID.String() {
		t.Fatalf("unexpected user id in context: %s", gotUserID)
	}
	if gotAccessID != accessID {
		t.Fatalf("unexpected access id in context: %s", gotAccessID)
	}
	if checker.checkedID != accessID {
		t.Fatalf("session checked with wrong id: %s", checker.checkedID)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig(), &stubSessionChecker{ok: true}, nil)(inner).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	Auth(testJWTConfig(), &stubSessionChecker{ok: true}, nil)(inner).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	otherCfg := testJWTConfig()
	otherCfg.Secret = "different-secret"
	token := mintToken(t, otherCfg, uuid.New(), uuid.NewString())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig(), &stubSessionChecker{ok: true}, nil)(http.NotFoundHandler()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	token := mintToken(t, cfg, uuid.New(), uuid.NewString())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(cfg, &stubSessionChecker{ok: false}, nil)(http.NotFoundHandler()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
