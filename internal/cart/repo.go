package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// Repository exposes persistence operations for cart state.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByOwner loads the active cart with its items for the owner.
func (r *Repository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("owner_id = ? AND status = ?", ownerID, enums.CartStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new Cart.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindItem returns the line for the given cart and product.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItem saves the provided cart line.
func (r *Repository) UpdateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":            item.Quantity,
			"line_subtotal_cents": item.LineSubtotalCents,
		}).Error
}

// DeleteItem removes a single cart line.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line belonging to the cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// UpdateTotals persists the recomputed cart subtotal.
func (r *Repository) UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotalCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("subtotal_cents", subtotalCents).Error
}
