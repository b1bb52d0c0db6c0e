package contacts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/internal/repo"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

// Repository persists contacts. Every query is scoped to one business and kind.
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
	Kind       enums.ContactKind
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *Repository) Create(ctx context.Context, contact *models.Contact) error {
	if contact == nil {
		return fmt.Errorf("contact is required")
	}
	return r.DB(ctx).Create(contact).Error
}

// Find loads a live contact of kind in the business.
func (r *Repository) Find(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := r.DB(ctx).
		Where("id = ? AND business_id = ? AND kind = ?", id, businessID, kind).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// List returns up to params.Limit rows, newest first.
func (r *Repository) List(ctx context.Context, params listParams) ([]models.Contact, error) {
	query := r.DB(ctx).
		Model(&models.Contact{}).
		Where("business_id = ? AND kind = ?", params.BusinessID, params.Kind)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Contact
	if err := query.Order("created_at DESC, id DESC").Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, contact *models.Contact) error {
	if contact == nil {
		return fmt.Errorf("contact is required")
	}
	return r.DB(ctx).Save(contact).Error
}

// SoftDelete tombstones the contact; missing rows yield gorm.ErrRecordNotFound.
func (r *Repository) SoftDelete(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) error {
	result := r.DB(ctx).
		Where("id = ? AND business_id = ? AND kind = ?", id, businessID, kind).
		Delete(&models.Contact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
