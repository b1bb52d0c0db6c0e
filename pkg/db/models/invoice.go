package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

// Invoice is a sales invoice. Money columns are NUMERIC(14,2).
type Invoice struct {
	ID         uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index"`
	CustomerID uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Number     string              `gorm:"column:number;not null"`
	Status     enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'draft'"`
	Currency   enums.Currency      `gorm:"column:currency;not null"`
	IssueDate  time.Time           `gorm:"column:issue_date;type:date;not null"`
	DueDate    *time.Time          `gorm:"column:due_date;type:date"`
	TaxRate    decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,2);not null"`
	Subtotal   decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null"`
	TaxAmount  decimal.Decimal     `gorm:"column:tax_amount;type:numeric(14,2);not null"`
	Discount   decimal.Decimal     `gorm:"column:discount;type:numeric(14,2);not null"`
	Total      decimal.Decimal     `gorm:"column:total;type:numeric(14,2);not null"`
	Notes      *string             `gorm:"column:notes"`
	CreatedBy  uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	SentAt     *time.Time          `gorm:"column:sent_at"`
	PaidAt     *time.Time          `gorm:"column:paid_at"`
	VoidedAt   *time.Time          `gorm:"column:voided_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// InvoiceLine is one priced row of an invoice.
type InvoiceLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Position    int             `gorm:"column:position;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *InvoiceLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
