package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// Product is a sellable catalog entry.
type Product struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	Title      string         `gorm:"column:title;not null"`
	SKU        string         `gorm:"column:sku;not null;uniqueIndex"`
	PriceCents int            `gorm:"column:price_cents;not null"`
	Currency   enums.Currency `gorm:"column:currency;not null;default:'USD'"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
