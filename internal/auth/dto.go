package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/internal/users"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload required to create a user account.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// RefreshRequest exchanges a refresh token bound to the (possibly expired) access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SwitchBusinessRequest selects the business the next tokens are scoped to.
type SwitchBusinessRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
}

// BusinessSummary describes a business the user can act in.
type BusinessSummary struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Currency enums.Currency   `json:"currency"`
	Role     enums.MemberRole `json:"role"`
}

// LoginResponse contains the tokens, user, and business list produced by a successful login.
type LoginResponse struct {
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	ActiveBusinessID *uuid.UUID        `json:"active_business_id,omitempty"`
	Businesses       []BusinessSummary `json:"businesses"`
	User             *users.UserDTO    `json:"user"`
}

// TokenPair is returned by refresh and switch-business.
type TokenPair struct {
	AccessToken      string     `json:"access_token"`
	RefreshToken     string     `json:"refresh_token"`
	ActiveBusinessID *uuid.UUID `json:"active_business_id,omitempty"`
}
