package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCheckAndMarkProcessed(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if already {
		t.Fatal("first sighting should not be marked processed")
	}

	already, err = manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !already {
		t.Fatal("second sighting should be marked processed")
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	eventID := uuid.New()
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := manager.Delete(context.Background(), "analytics", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", eventID)
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if already {
		t.Fatal("deleted marker should allow reprocessing")
	}
}

func TestProcessedKeyValidation(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(newStubStore(), time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error for missing consumer")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", uuid.Nil); err == nil {
		t.Fatal("expected error for nil event id")
	}
}

type stubStore struct {
	values map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{values: map[string]string{}}
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return value, nil
}

func (s *stubStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	str, _ := value.(string)
	s.values[key] = str
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return "ml:idempotency:" + scope + ":" + id
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}
