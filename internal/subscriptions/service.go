package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

type planLoader interface {
	FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error)
}

type invoiceIssuer interface {
	IssueForSubscription(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.BillingPlan) (*models.Invoice, error)
}

// Service manages the subscription lifecycle.
type Service interface {
	GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Create(ctx context.Context, userID uuid.UUID, planID string) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type service struct {
	repo     SubscriptionRepository
	plans    planLoader
	invoices invoiceIssuer
	tx       txRunner
	events   eventEmitter
	now      func() time.Time
}

// NewService builds a subscription service backed by the provided stack.
func NewService(repo SubscriptionRepository, plans planLoader, invoices invoiceIssuer, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan loader required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice issuer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:     repo,
		plans:    plans,
		invoices: invoices,
		tx:       tx,
		events:   events,
		now:      time.Now,
	}, nil
}

// GetCurrent returns the user's usable subscription, or nil when none
// exists. Absence is not an error.
func (s *service) GetCurrent(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := s.repo.FindUsableByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	if sub != nil && sub.CancelAtPeriodEnd && !s.now().UTC().Before(sub.CurrentPeriodEnd) {
		if err := s.retire(ctx, sub); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return Classify(sub), nil
}

// retire flips a period-end-scheduled subscription to canceled once its
// paid period has lapsed. There is no scheduled worker for this; the flip
// happens lazily on the first read past the period end.
func (s *service) retire(ctx context.Context, sub *models.Subscription) error {
	err := s.repo.UpdateStatus(ctx, sub.ID, map[string]any{
		"status": enums.SubscriptionStatusCanceled,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire subscription")
	}
	sub.Status = enums.SubscriptionStatusCanceled
	return nil
}

// Create subscribes the user to the plan. A usable subscription for another
// plan blocks the request; one already on the plan makes this a no-op that
// returns the existing row. Trials are granted only on the user's first
// subscription ever, which is the authoritative check the storefront
// heuristic approximates.
func (s *service) Create(ctx context.Context, userID uuid.UUID, planID string) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if planID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}

	plan, err := s.plans.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != enums.PlanStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is not purchasable")
	}

	existing, err := s.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch GetPlanRelationship(existing, planID) {
		case RelationshipCurrent:
			return existing, nil
		case RelationshipBlocked:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "an active subscription for another plan exists")
		}
	}

	priorCount, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count subscriptions")
	}

	now := s.now().UTC()
	periodEnd := addInterval(now, plan.Interval)
	sub := &models.Subscription{
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             enums.SubscriptionStatusActive,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   periodEnd,
	}
	if plan.TrialDays > 0 && priorCount == 0 {
		sub.Status = enums.SubscriptionStatusTrialing
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.TrialEnd = &trialEnd
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, sub)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		sub = created

		if sub.Status == enums.SubscriptionStatusActive {
			if _, err := s.invoices.IssueForSubscription(ctx, tx, sub, plan); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCreated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: map[string]any{
				"subscriptionId": sub.ID.String(),
				"planId":         plan.ID,
				"status":         sub.Status.String(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	sub.Plan = plan
	return sub, nil
}

// Cancel ends the user's usable subscription immediately.
// Cancel schedules the usable subscription to lapse at the end of the paid
// period. The subscription stays usable until then; calling again while
// already scheduled is a no-op.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription")
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{
			"cancel_at_period_end": true,
			"canceled_at":          now,
		}
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, sub.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCanceled,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: map[string]any{
				"subscriptionId": sub.ID.String(),
				"planId":         sub.PlanID,
				"canceledAt":     now.Format(time.RFC3339),
				"effectiveAt":    sub.CurrentPeriodEnd.Format(time.RFC3339),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	return sub, nil
}

func addInterval(start time.Time, interval enums.BillingInterval) time.Time {
	if interval == enums.BillingIntervalYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
