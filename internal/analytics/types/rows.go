package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// BillingEventRow mirrors the billing_events BigQuery schema.
type BillingEventRow struct {
	EventID        string             `bigquery:"event_id"`
	EventType      string             `bigquery:"event_type"`
	AggregateType  string             `bigquery:"aggregate_type"`
	AggregateID    string             `bigquery:"aggregate_id"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	UserID         *string            `bigquery:"user_id"`
	CartID         *string            `bigquery:"cart_id"`
	PlanID         *string            `bigquery:"plan_id"`
	SubscriptionID *string            `bigquery:"subscription_id"`
	InvoiceID      *string            `bigquery:"invoice_id"`
	InvoiceNumber  *string            `bigquery:"invoice_number"`
	AmountCents    *int64             `bigquery:"amount_cents"`
	ItemCount      *int64             `bigquery:"item_count"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}
