package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	"github.com/angelmondragon/marketloft-backend/pkg/pagination"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListBillingPlans(ctx context.Context, params ListBillingPlansQuery) ([]models.BillingPlan, error)
	FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error)
	FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error)
	CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	ListInvoices(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error)
	FindInvoiceByID(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error)
	CountInvoices(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// ListBillingPlansQuery configures billing plan list queries.
type ListBillingPlansQuery struct {
	Status    *enums.PlanStatus
	IsDefault *bool
}

// ListInvoicesQuery configures invoice list queries.
type ListInvoicesQuery struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListBillingPlans(ctx context.Context, params ListBillingPlansQuery) ([]models.BillingPlan, error) {
	query := r.db.WithContext(ctx).Model(&models.BillingPlan{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.IsDefault != nil {
		query = query.Where("is_default = ?", *params.IsDefault)
	}
	var plans []models.BillingPlan
	if err := query.Order("price_amount ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) ListInvoices(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&invoices).Error; err != nil {
		return nil, nil, err
	}

	if len(invoices) > limit {
		next := invoices[limit]
		invoices = invoices[:limit]
		return invoices, &pagination.Cursor{
			CreatedAt: next.CreatedAt,
			ID:        next.ID,
		}, nil
	}

	return invoices, nil, nil
}

func (r *repository) FindInvoiceByID(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) CountInvoices(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).Count(&count).Error
	return count, err
}
