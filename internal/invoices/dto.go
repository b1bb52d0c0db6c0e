package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

// LineRequest is one line item of a create request.
type LineRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceRequest is the payload for POST .../invoices.
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	Number     string          `json:"number" validate:"required,max=50"`
	IssueDate  string          `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate    *string         `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency   string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Discount   decimal.Decimal `json:"discount"`
	Notes      *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Lines      []LineRequest   `json:"lines" validate:"required,min=1,max=200,dive"`
}

// StatusRequest moves an invoice to a new status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid void"`
}

// ListParams filters and pages invoices.
type ListParams struct {
	Status *enums.InvoiceStatus
	Limit  int
	Cursor string
}

// LineDTO is the API shape of an invoice line.
type LineDTO struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceDTO is the API shape of an invoice. Lines is omitted from list responses.
type InvoiceDTO struct {
	ID         uuid.UUID           `json:"id"`
	BusinessID uuid.UUID           `json:"business_id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Number     string              `json:"number"`
	Status     enums.InvoiceStatus `json:"status"`
	Currency   enums.Currency      `json:"currency"`
	IssueDate  string              `json:"issue_date"`
	DueDate    *string             `json:"due_date,omitempty"`
	TaxRate    decimal.Decimal     `json:"tax_rate"`
	Subtotal   decimal.Decimal     `json:"subtotal"`
	TaxAmount  decimal.Decimal     `json:"tax_amount"`
	Discount   decimal.Decimal     `json:"discount"`
	Total      decimal.Decimal     `json:"total"`
	Notes      *string             `json:"notes,omitempty"`
	CreatedBy  uuid.UUID           `json:"created_by"`
	SentAt     *time.Time          `json:"sent_at,omitempty"`
	PaidAt     *time.Time          `json:"paid_at,omitempty"`
	VoidedAt   *time.Time          `json:"voided_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Lines      []LineDTO           `json:"lines,omitempty"`
}

// ListResult is one page of invoices.
type ListResult struct {
	Items  []InvoiceDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

func FromModel(inv *models.Invoice) *InvoiceDTO {
	if inv == nil {
		return nil
	}
	dto := &InvoiceDTO{
		ID:         inv.ID,
		BusinessID: inv.BusinessID,
		CustomerID: inv.CustomerID,
		Number:     inv.Number,
		Status:     inv.Status,
		Currency:   inv.Currency,
		IssueDate:  inv.IssueDate.Format(dateLayout),
		TaxRate:    inv.TaxRate,
		Subtotal:   inv.Subtotal,
		TaxAmount:  inv.TaxAmount,
		Discount:   inv.Discount,
		Total:      inv.Total,
		Notes:      inv.Notes,
		CreatedBy:  inv.CreatedBy,
		SentAt:     inv.SentAt,
		PaidAt:     inv.PaidAt,
		VoidedAt:   inv.VoidedAt,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
	if inv.DueDate != nil {
		due := inv.DueDate.Format(dateLayout)
		dto.DueDate = &due
	}
	for _, line := range inv.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:          line.ID,
			Position:    line.Position,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}
	return dto
}
