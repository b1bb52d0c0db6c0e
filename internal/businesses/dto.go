package businesses

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/types"
)

// BusinessDTO is the API shape of a business.
type BusinessDTO struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	LegalName       *string        `json:"legal_name,omitempty"`
	TaxID           *string        `json:"tax_id,omitempty"`
	Currency        enums.Currency `json:"currency"`
	Email           *string        `json:"email,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	Address         *types.Address `json:"address,omitempty"`
	CreatedByUserID uuid.UUID      `json:"created_by_user_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MyBusinessDTO is a business listed for the caller together with their role.
type MyBusinessDTO struct {
	BusinessDTO
	Role enums.MemberRole `json:"role"`
}

// CreateBusinessRequest is the payload for POST /businesses.
type CreateBusinessRequest struct {
	Name      string         `json:"name" validate:"required,max=200"`
	LegalName *string        `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	TaxID     *string        `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Currency  string         `json:"currency,omitempty" validate:"omitempty,len=3"`
	Email     *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address   *types.Address `json:"address,omitempty"`
}

// UpdateBusinessRequest holds optional changes; nil fields are left untouched.
type UpdateBusinessRequest struct {
	Name      *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	LegalName *string        `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	TaxID     *string        `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Currency  *string        `json:"currency,omitempty" validate:"omitempty,len=3"`
	Email     *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address   *types.Address `json:"address,omitempty"`
}

func FromModel(b *models.Business) *BusinessDTO {
	if b == nil {
		return nil
	}
	return &BusinessDTO{
		ID:              b.ID,
		Name:            b.Name,
		LegalName:       b.LegalName,
		TaxID:           b.TaxID,
		Currency:        b.Currency,
		Email:           b.Email,
		Phone:           b.Phone,
		Address:         b.Address,
		CreatedByUserID: b.CreatedByUserID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizedAddress(addr *types.Address) *types.Address {
	if addr == nil {
		return nil
	}
	normalized := addr.Normalize()
	return &normalized
}
