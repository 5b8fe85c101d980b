package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line in a cart. A cart never holds two lines for
// the same product; quantity stays at or above one.
type CartItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	Quantity          int       `gorm:"column:quantity;not null"`
	UnitPriceCents    int       `gorm:"column:unit_price_cents;not null"`
	LineSubtotalCents int       `gorm:"column:line_subtotal_cents;not null"`
	Product           *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
