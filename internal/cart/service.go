package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/internal/products"
	dbpkg "github.com/angelmondragon/marketloft-backend/pkg/db"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the cart operations backing the storefront.
type Service interface {
	GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*models.Cart, error)
	AdjustQuantity(ctx context.Context, ownerID, productID uuid.UUID, delta int) (*models.Cart, error)
	RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error)
}

// AddItemInput captures the payload for a new cart line.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo     CartRepository
	prodRepo products.ProductRepository
	tx       txRunner
	events   eventEmitter
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, prodRepo products.ProductRepository, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if prodRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, prodRepo: prodRepo, tx: tx, events: events}, nil
}

// GetOrCreate returns the owner's active cart, creating an empty one lazily.
func (s *service) GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	record, err := s.repo.FindActiveByOwner(ctx, ownerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		OwnerID:  ownerID,
		Status:   enums.CartStatusActive,
		Currency: enums.CurrencyUSD,
	})
	if err != nil {
		// Concurrent first fetch can lose the insert race on the partial
		// unique index; the winner's cart is the one to return.
		if dbpkg.IsUniqueViolation(err, "ux_carts_owner_active") {
			return s.repo.FindActiveByOwner(ctx, ownerID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	created.Items = []models.CartItem{}
	return created, nil
}

// AddItem appends a new line for the product. Adding a product already in
// the cart is a conflict; quantity adjustments go through AdjustQuantity.
func (s *service) AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	record, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	product, err := s.prodRepo.GetActiveByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindItem(ctx, record.ID, product.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "already in cart")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart item")
		}

		item := &models.CartItem{
			CartID:            record.ID,
			ProductID:         product.ID,
			Quantity:          qty,
			UnitPriceCents:    product.PriceCents,
			LineSubtotalCents: qty * product.PriceCents,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_cart_items_cart_product") {
				return pkgerrors.New(pkgerrors.CodeConflict, "already in cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
		}
		return s.recomputeTotals(ctx, repo, record.ID, ownerID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindActiveByOwner(ctx, ownerID)
}

// AdjustQuantity applies a signed delta to an existing line. A missing line
// with a positive delta is created so the same endpoint handles add and
// adjust; a resulting quantity below one is rejected.
func (s *service) AdjustQuantity(ctx context.Context, ownerID, productID uuid.UUID, delta int) (*models.Cart, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	record, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, record.ID, productID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart item")
			}
			if delta < 1 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
			}
			product, err := s.prodRepo.WithTx(tx).GetActiveByID(ctx, productID)
			if err != nil {
				return err
			}
			item = &models.CartItem{
				CartID:            record.ID,
				ProductID:         product.ID,
				Quantity:          delta,
				UnitPriceCents:    product.PriceCents,
				LineSubtotalCents: delta * product.PriceCents,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
			}
			return s.recomputeTotals(ctx, repo, record.ID, ownerID)
		}

		next := item.Quantity + delta
		if next < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must stay at or above 1")
		}
		item.Quantity = next
		item.LineSubtotalCents = next * item.UnitPriceCents
		if err := repo.UpdateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return s.recomputeTotals(ctx, repo, record.ID, ownerID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindActiveByOwner(ctx, ownerID)
}

// RemoveItem deletes the line for the product.
func (s *service) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	record, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, record.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart item")
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return s.recomputeTotals(ctx, repo, record.ID, ownerID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindActiveByOwner(ctx, ownerID)
}

// Clear empties the cart in one transaction and queues a cart.cleared event.
// Clearing an already empty cart is a no-op that still succeeds.
func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	record, err := s.GetOrCreate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		if err := repo.UpdateTotals(ctx, record.ID, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart totals")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartCleared,
			AggregateType: enums.AggregateCart,
			AggregateID:   record.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID},
			Data: map[string]any{
				"cartId":  record.ID.String(),
				"ownerId": ownerID.String(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindActiveByOwner(ctx, ownerID)
}

func (s *service) recomputeTotals(ctx context.Context, repo CartRepository, cartID uuid.UUID, ownerID uuid.UUID) error {
	record, err := repo.FindActiveByOwner(ctx, ownerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	subtotal := 0
	for _, item := range record.Items {
		subtotal += item.LineSubtotalCents
	}
	if err := repo.UpdateTotals(ctx, cartID, subtotal); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart totals")
	}
	return nil
}
