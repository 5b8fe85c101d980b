package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
	"github.com/angelmondragon/marketloft-backend/pkg/outbox"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	err      error
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.PollIntervalMS = 10
	cfg.Outbox.MaxAttempts = 3
	svc, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    testLogger(),
		Repo:      repo,
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func testEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"cart_id":"abc"}`),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateCart,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := testEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventCartCleared) {
		t.Fatalf("unexpected event_type attribute: %s", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute: %s", msg.Attributes["aggregate_id"])
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
}

func TestProcessBatchMarksFailureOnPublishError(t *testing.T) {
	event := testEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected no published marks, got %v", repo.published)
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

func TestEventIDPrefersEnvelope(t *testing.T) {
	event := testEvent(t)
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got := eventID(event); got != envelope.EventID {
		t.Fatalf("expected envelope event id, got %s", got)
	}

	event.Payload = json.RawMessage(`not-json`)
	if got := eventID(event); got != event.ID.String() {
		t.Fatalf("expected fallback to row id, got %s", got)
	}
}
