package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID              uuid.UUID        `json:"id"`
	BusinessID      uuid.UUID        `json:"business_id"`
	UserID          uuid.UUID        `json:"user_id"`
	Role            enums.MemberRole `json:"role"`
	Permissions     []string         `json:"permissions"`
	IsActive        bool             `json:"is_active"`
	InvitedByUserID *uuid.UUID       `json:"invited_by_user_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MembershipWithBusiness is one entry of a user's business switcher.
type MembershipWithBusiness struct {
	MembershipID uuid.UUID        `json:"membership_id"`
	BusinessID   uuid.UUID        `json:"business_id"`
	UserID       uuid.UUID        `json:"user_id"`
	BusinessName string           `json:"business_name"`
	Currency     enums.Currency   `json:"currency"`
	Role         enums.MemberRole `json:"role"`
	CreatedAt    time.Time        `json:"created_at"`
}

// MemberDTO mixes membership metadata with the member's user profile.
type MemberDTO struct {
	MembershipID uuid.UUID        `json:"membership_id"`
	BusinessID   uuid.UUID        `json:"business_id"`
	UserID       uuid.UUID        `json:"user_id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	Role         enums.MemberRole `json:"role"`
	Permissions  []string         `json:"permissions"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.BusinessMembership) *MembershipDTO {
	if m == nil {
		return nil
	}

	return &MembershipDTO{
		ID:              m.ID,
		BusinessID:      m.BusinessID,
		UserID:          m.UserID,
		Role:            m.Role,
		Permissions:     copyPermissions(m.Permissions),
		IsActive:        m.IsActive,
		InvitedByUserID: copyUUIDPointer(m.InvitedByUserID),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func copyUUIDPointer(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}

func copyPermissions(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
