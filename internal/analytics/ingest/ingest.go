package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/marketloft-backend/internal/analytics/types"
	"github.com/angelmondragon/marketloft-backend/internal/analytics/writer"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
)

// ErrUnsupportedEventType signals the envelope names an event the ingester does not handle.
var ErrUnsupportedEventType = errors.New("unsupported event type")

type rowWriter interface {
	InsertEvent(ctx context.Context, row types.BillingEventRow) error
}

// Service converts billing envelopes into BigQuery rows.
type Service struct {
	writer rowWriter
	logg   *logger.Logger
}

// NewService builds the ingest handler.
func NewService(rows rowWriter, logg *logger.Logger) (*Service, error) {
	if rows == nil {
		return nil, errors.New("row writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{writer: rows, logg: logg}, nil
}

// Handle builds the billing event row and writes it to BigQuery.
func (s *Service) Handle(ctx context.Context, envelope types.Envelope) error {
	row, err := BuildRow(envelope)
	if err != nil {
		return err
	}
	if err := s.writer.InsertEvent(ctx, *row); err != nil {
		return fmt.Errorf("insert billing event: %w", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": envelope.EventType,
	}), "billing event ingested")
	return nil
}

// BuildRow flattens the envelope into the billing_events schema.
func BuildRow(envelope types.Envelope) (*types.BillingEventRow, error) {
	if !envelope.EventType.IsValid() {
		return nil, ErrUnsupportedEventType
	}

	payload, err := envelope.PayloadMap()
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	payloadJSON, err := writer.EncodeJSON(envelope.Payload)
	if err != nil {
		return nil, err
	}

	row := &types.BillingEventRow{
		EventID:        envelope.EventID,
		EventType:      string(envelope.EventType),
		AggregateType:  string(envelope.AggregateType),
		AggregateID:    envelope.AggregateID,
		OccurredAt:     envelope.OccurredAt,
		UserID:         stringValue(payload, "user_id"),
		CartID:         stringValue(payload, "cart_id"),
		PlanID:         stringValue(payload, "plan_id"),
		SubscriptionID: stringValue(payload, "subscription_id"),
		InvoiceID:      stringValue(payload, "invoice_id"),
		InvoiceNumber:  stringValue(payload, "invoice_number"),
		AmountCents:    intValue(payload, "amount_cents"),
		ItemCount:      intValue(payload, "item_count"),
		Payload:        payloadJSON,
	}

	switch envelope.EventType {
	case enums.EventCartCleared:
		if row.CartID == nil {
			row.CartID = aggregateID(envelope, enums.AggregateCart)
		}
	case enums.EventSubscriptionCreated, enums.EventSubscriptionCanceled:
		if row.SubscriptionID == nil {
			row.SubscriptionID = aggregateID(envelope, enums.AggregateSubscription)
		}
	case enums.EventInvoiceIssued:
		if row.InvoiceID == nil {
			row.InvoiceID = aggregateID(envelope, enums.AggregateInvoice)
		}
	}

	return row, nil
}

func aggregateID(envelope types.Envelope, want enums.OutboxAggregateType) *string {
	if envelope.AggregateType != want {
		return nil
	}
	id := strings.TrimSpace(envelope.AggregateID)
	if id == "" {
		return nil
	}
	return &id
}

func stringValue(payload map[string]any, key string) *string {
	if payload == nil {
		return nil
	}
	if raw, ok := payload[key]; ok {
		if str, ok := raw.(string); ok {
			trimmed := strings.TrimSpace(str)
			if trimmed != "" {
				return &trimmed
			}
		}
	}
	return nil
}

func intValue(payload map[string]any, key string) *int64 {
	if payload == nil {
		return nil
	}
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	// JSON numbers decode as float64.
	if num, ok := raw.(float64); ok {
		value := int64(num)
		return &value
	}
	return nil
}
