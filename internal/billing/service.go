package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/outbox"
	"github.com/angelmondragon/marketloft-backend/pkg/pagination"
)

var centsFactor = decimal.NewFromInt(100)

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo   Repository
	Events eventEmitter
}

// Service exposes plan and invoice operations.
type Service struct {
	repo   Repository
	events eventEmitter
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Events == nil {
		return nil, errors.New("event emitter is required")
	}
	return &Service{repo: params.Repo, events: params.Events}, nil
}

// ListPlans returns purchasable plans ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]models.BillingPlan, error) {
	status := enums.PlanStatusActive
	plans, err := s.repo.ListBillingPlans(ctx, ListBillingPlansQuery{Status: &status})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

// FindPlanByID loads one plan regardless of status.
func (s *Service) FindPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	plan, err := s.repo.FindBillingPlanByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	return plan, nil
}

// ListInvoices pages through the user's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, userID uuid.UUID, limit int, cursor string) ([]models.Invoice, *pagination.Cursor, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	invoices, next, err := s.repo.ListInvoices(ctx, ListInvoicesQuery{
		UserID: userID,
		Limit:  limit,
		Cursor: parsed,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return invoices, next, nil
}

// GetInvoice loads one invoice scoped to the user.
func (s *Service) GetInvoice(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// Download returns the stored PDF for the invoice.
func (s *Service) Download(ctx context.Context, id, userID uuid.UUID) ([]byte, string, error) {
	invoice, err := s.GetInvoice(ctx, id, userID)
	if err != nil {
		return nil, "", err
	}
	if len(invoice.PDF) == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "invoice document not available")
	}
	filename := fmt.Sprintf("%s.pdf", invoice.Number)
	return invoice.PDF, filename, nil
}

// IssueForSubscription creates the first-period invoice inside the caller's
// transaction and queues an invoice.issued event. The PDF is rendered up
// front and stored with the row.
func (s *Service) IssueForSubscription(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.BillingPlan) (*models.Invoice, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if sub == nil || plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription and plan required")
	}

	repo := s.repo.WithTx(tx)
	sequence, err := repo.CountInvoices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invoices")
	}

	periodStart := sub.CurrentPeriodEnd
	if sub.CurrentPeriodStart != nil {
		periodStart = *sub.CurrentPeriodStart
	}
	issuedAt := periodStart

	invoice := &models.Invoice{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Number:         invoiceNumber(issuedAt, sequence+1),
		Status:         enums.InvoiceStatusOpen,
		AmountCents:    int(plan.PriceAmount.Mul(centsFactor).IntPart()),
		Currency:       enums.Currency(plan.CurrencyCode),
		PeriodStart:    periodStart,
		PeriodEnd:      sub.CurrentPeriodEnd,
		IssuedAt:       issuedAt,
	}
	invoice.PDF = renderInvoicePDF(invoice, plan.Name)

	if err := repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}

	err = s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInvoiceIssued,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoice.ID,
		Actor:         &outbox.ActorRef{UserID: sub.UserID},
		Data: map[string]any{
			"invoiceId":      invoice.ID.String(),
			"subscriptionId": sub.ID.String(),
			"number":         invoice.Number,
			"amountCents":    invoice.AmountCents,
		},
		Version: 1,
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}
