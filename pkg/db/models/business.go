package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/types"
)

// Business is the tenant. Deleting one only sets DeletedAt.
type Business struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	LegalName       *string        `gorm:"column:legal_name"`
	TaxID           *string        `gorm:"column:tax_id"`
	Currency        enums.Currency `gorm:"column:currency;not null;default:'USD'"`
	Email           *string        `gorm:"column:email"`
	Phone           *string        `gorm:"column:phone"`
	Address         *types.Address `gorm:"column:address;type:jsonb"`
	CreatedByUserID uuid.UUID      `gorm:"column:created_by_user_id;type:uuid;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (b *Business) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
