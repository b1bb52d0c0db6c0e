package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bizledger-backend/internal/repo"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

// ErrStatusChanged means the invoice left the expected status before the write landed.
var ErrStatusChanged = errors.New("invoice status changed concurrently")

// Repository persists invoices and their lines.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Bind(tx)}
}

type listParams struct {
	BusinessID uuid.UUID
	Status     *enums.InvoiceStatus
	Limit      int
	Cursor     *pagination.Cursor
}

// Create inserts the invoice together with its Lines.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice == nil {
		return fmt.Errorf("invoice is required")
	}
	return r.DB(ctx).Create(invoice).Error
}

// Find loads an invoice of the business with its lines in position order.
func (r *Repository) Find(ctx context.Context, businessID, id uuid.UUID) (*models.Invoice, error) {
	return r.find(r.DB(ctx), businessID, id)
}

// FindForUpdate is Find with the invoice row locked until the surrounding
// transaction ends.
func (r *Repository) FindForUpdate(ctx context.Context, businessID, id uuid.UUID) (*models.Invoice, error) {
	return r.find(r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), businessID, id)
}

func (r *Repository) find(query *gorm.DB, businessID, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id = ? AND business_id = ?", id, businessID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns up to params.Limit invoices without lines, newest first.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.Invoice, error) {
	query := r.DB(ctx).Model(&models.Invoice{}).Where("business_id = ?", params.BusinessID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Invoice
	if err := query.Order("created_at DESC, id DESC").Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus writes the new status and the matching timestamp columns only while
// the row still holds from. Otherwise it returns ErrStatusChanged.
func (r *Repository) UpdateStatus(ctx context.Context, invoice *models.Invoice, from enums.InvoiceStatus) error {
	result := r.DB(ctx).
		Model(invoice).
		Where("status = ?", from).
		Select("status", "sent_at", "paid_at", "voided_at", "updated_at").
		Updates(invoice)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// FindCustomer loads a live contact of the business; callers check its kind.
func (r *Repository) FindCustomer(ctx context.Context, businessID, contactID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.DB(ctx).
		Where("id = ? AND business_id = ?", contactID, businessID).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// BusinessCurrency returns the default currency of a live business.
func (r *Repository) BusinessCurrency(ctx context.Context, businessID uuid.UUID) (enums.Currency, error) {
	var business models.Business
	err := r.DB(ctx).Select("id", "currency").Where("id = ?", businessID).First(&business).Error
	if err != nil {
		return "", err
	}
	return business.Currency, nil
}
