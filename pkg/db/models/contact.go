package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/types"
)

// Contact is a customer or vendor record owned by one business.
type Contact struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	Kind       enums.ContactKind `gorm:"column:kind;type:contact_kind;not null"`
	Name       string            `gorm:"column:name;not null"`
	Email      *string           `gorm:"column:email"`
	Phone      *string           `gorm:"column:phone"`
	TaxID      *string           `gorm:"column:tax_id"`
	Address    *types.Address    `gorm:"column:address;type:jsonb"`
	Notes      *string           `gorm:"column:notes"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

func (c *Contact) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
