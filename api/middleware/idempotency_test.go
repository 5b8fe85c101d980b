package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubIdempotencyStore struct {
	values map[string]string

	setKeys []string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{values: map[string]string{}}
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	s.setKeys = append(s.setKeys, key)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "ml:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotentRequest(body, key, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithUserID(req.Context(), userID))
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	handler := Idempotency(newStubIdempotencyStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, idempotentRequest(`{"product_id":"x"}`, "", "user-1"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"abc"}}`))
	}))

	body := `{"product_id":"p-1","quantity":1}`

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(body, "key-1", "user-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(body, "key-1", "user-1"))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", second.Body.String(), first.Body.String())
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(`{"product_id":"p-1"}`, "key-1", "user-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(`{"product_id":"p-2"}`, "key-1", "user-1"))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", second.Code)
	}
}

func TestIdempotencyScopedPerUser(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	body := `{"product_id":"p-1"}`
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(body, "key-1", "user-1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(body, "key-1", "user-2"))

	if calls != 2 {
		t.Fatalf("expected both users to reach the handler, got %d calls", calls)
	}
}

func TestIdempotencySkipsUnmatchedRoutes(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(store.setKeys) != 0 {
		t.Fatalf("expected no stored records, got %v", store.setKeys)
	}
}
