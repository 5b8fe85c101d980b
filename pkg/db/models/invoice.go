package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// Invoice is an issued billing document for one subscription period. The
// rendered PDF is stored alongside the row so downloads need no extra
// rendering dependency at request time.
type Invoice struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null"`
	Number         string              `gorm:"column:number;not null;uniqueIndex"`
	Status         enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'open'"`
	AmountCents    int                 `gorm:"column:amount_cents;not null"`
	Currency       enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	PeriodStart    time.Time           `gorm:"column:period_start;not null"`
	PeriodEnd      time.Time           `gorm:"column:period_end;not null"`
	IssuedAt       time.Time           `gorm:"column:issued_at;not null"`
	PDF            []byte              `gorm:"column:pdf;type:bytea"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
