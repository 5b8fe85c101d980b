package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// Cart is the single active cart owned by one user. It is created lazily on
// first fetch and emptied on clear; totals are recomputed on every mutation.
type Cart struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:ux_carts_owner_active,where:status = 'active'"`
	Status        enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Currency      enums.Currency   `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents int              `gorm:"column:subtotal_cents;not null;default:0"`
	Items         []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
