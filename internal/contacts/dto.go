package contacts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/types"
)

// ContactDTO is the API shape of a customer or vendor.
type ContactDTO struct {
	ID         uuid.UUID         `json:"id"`
	BusinessID uuid.UUID         `json:"business_id"`
	Kind       enums.ContactKind `json:"kind"`
	Name       string            `json:"name"`
	Email      *string           `json:"email,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	TaxID      *string           `json:"tax_id,omitempty"`
	Address    *types.Address    `json:"address,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CreateContactRequest is the payload for creating a customer or vendor.
type CreateContactRequest struct {
	Name    string         `json:"name" validate:"required,max=200"`
	Email   *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	TaxID   *string        `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Address *types.Address `json:"address,omitempty"`
	Notes   *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateContactRequest holds optional changes.
type UpdateContactRequest struct {
	Name    *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email   *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	TaxID   *string        `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Address *types.Address `json:"address,omitempty"`
	Notes   *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListResult is one page of contacts.
type ListResult struct {
	Items  []ContactDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

func FromModel(c *models.Contact) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{
		ID:         c.ID,
		BusinessID: c.BusinessID,
		Kind:       c.Kind,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		TaxID:      c.TaxID,
		Address:    c.Address,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
