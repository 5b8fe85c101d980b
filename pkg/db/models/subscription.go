package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// Subscription persists per-user subscription state. At most one usable
// (active/trialing) subscription exists per user at any time.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	PlanID             string                   `gorm:"column:plan_id;not null"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CurrentPeriodStart *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null"`
	TrialEnd           *time.Time               `gorm:"column:trial_end"`
	CancelAtPeriodEnd  bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	Metadata           json.RawMessage          `gorm:"column:metadata;type:jsonb"`
	Plan               *BillingPlan             `gorm:"foreignKey:PlanID"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
