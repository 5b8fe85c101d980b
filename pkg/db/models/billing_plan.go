package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// BillingPlan captures the immutable metadata for a subscription plan.
type BillingPlan struct {
	ID           string                `gorm:"column:id;primaryKey"`
	Name         string                `gorm:"column:name;not null"`
	Status       enums.PlanStatus      `gorm:"column:status;type:text;not null"`
	Interval     enums.BillingInterval `gorm:"column:billing_interval;type:text;not null"`
	PriceAmount  decimal.Decimal       `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode string                `gorm:"column:currency_code;not null"`
	Features     pq.StringArray        `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	TrialDays    int                   `gorm:"column:trial_days;not null;default:0"`
	IsDefault    bool                  `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
