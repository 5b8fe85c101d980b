package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotalCents int) error
}
