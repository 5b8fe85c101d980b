package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// SubscriptionRepository defines the persistence surface for subscriptions.
type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	FindUsableByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// Repository is the GORM-backed subscription repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscription repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SubscriptionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindUsableByUser loads the user's active or trialing subscription with its plan.
func (r *Repository) FindUsableByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status IN ?", userID, []enums.SubscriptionStatus{
			enums.SubscriptionStatusActive,
			enums.SubscriptionStatusTrialing,
		}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CountByUser counts every subscription row the user has ever had.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Create inserts a new subscription.
func (r *Repository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateStatus applies the provided column updates to one subscription row.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}
