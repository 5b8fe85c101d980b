package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/internal/analytics/types"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
)

func TestBuildRowInvoiceIssued(t *testing.T) {
	t.Parallel()

	invoiceID := uuid.NewString()
	payload, _ := json.Marshal(map[string]any{
		"invoice_id":      invoiceID,
		"invoice_number":  "INV-2026-000042",
		"subscription_id": uuid.NewString(),
		"user_id":         uuid.NewString(),
		"amount_cents":    2999,
	})
	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventInvoiceIssued,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoiceID,
		OccurredAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:       payload,
	}

	row, err := BuildRow(envelope)
	if err != nil {
		t.Fatalf("build row: %v", err)
	}
	if row.InvoiceID == nil || *row.InvoiceID != invoiceID {
		t.Fatal("invoice id mismatch")
	}
	if row.InvoiceNumber == nil || *row.InvoiceNumber != "INV-2026-000042" {
		t.Fatal("invoice number mismatch")
	}
	if row.AmountCents == nil || *row.AmountCents != 2999 {
		t.Fatal("amount mismatch")
	}
	if !row.Payload.Valid {
		t.Fatal("payload should round-trip as json")
	}
}

func TestBuildRowFallsBackToAggregateID(t *testing.T) {
	t.Parallel()

	cartID := uuid.NewString()
	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateCart,
		AggregateID:   cartID,
		OccurredAt:    time.Now().UTC(),
		Payload:       json.RawMessage(`{"item_count":3}`),
	}

	row, err := BuildRow(envelope)
	if err != nil {
		t.Fatalf("build row: %v", err)
	}
	if row.CartID == nil || *row.CartID != cartID {
		t.Fatal("expected cart id from aggregate")
	}
	if row.ItemCount == nil || *row.ItemCount != 3 {
		t.Fatal("expected item count from payload")
	}
}

func TestBuildRowRejectsUnknownEvent(t *testing.T) {
	t.Parallel()

	envelope := types.Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.OutboxEventType("order.created"),
	}
	if _, err := BuildRow(envelope); !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported event error, got %v", err)
	}
}

func TestBuildRowRejectsBadPayload(t *testing.T) {
	t.Parallel()

	envelope := types.Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.EventCartCleared,
		Payload:   json.RawMessage("{invalid"),
	}
	if _, err := BuildRow(envelope); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}

func TestHandleWritesRow(t *testing.T) {
	t.Parallel()

	rows := &stubRowWriter{}
	svc, err := NewService(rows, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventSubscriptionCreated,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   uuid.NewString(),
		OccurredAt:    time.Now().UTC(),
		Payload:       json.RawMessage(`{"plan_id":"pro-monthly"}`),
	}
	if err := svc.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(rows.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows.rows))
	}
	if rows.rows[0].PlanID == nil || *rows.rows[0].PlanID != "pro-monthly" {
		t.Fatal("plan id mismatch")
	}
}

func TestHandlePropagatesWriterError(t *testing.T) {
	t.Parallel()

	rows := &stubRowWriter{err: errors.New("bigquery down")}
	svc, err := NewService(rows, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	envelope := types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateCart,
		AggregateID:   uuid.NewString(),
	}
	if err := svc.Handle(context.Background(), envelope); err == nil {
		t.Fatal("expected writer error to propagate")
	}
}

type stubRowWriter struct {
	rows []types.BillingEventRow
	err  error
}

func (s *stubRowWriter) InsertEvent(ctx context.Context, row types.BillingEventRow) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "analytics-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	})
}
