package auth

import (
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the input for minting an access token. JTI doubles as the
// refresh-session key; a blank JTI gets a fresh UUID.
type AccessTokenPayload struct {
	UserID           uuid.UUID
	ActiveBusinessID *uuid.UUID
	Role             enums.MemberRole
	JTI              string
}

// AccessTokenClaims is the signed JWT body. ActiveBusinessID and Role are hints for
// clients only; every business-scoped request re-reads the membership.
type AccessTokenClaims struct {
	UserID           uuid.UUID        `json:"user_id"`
	ActiveBusinessID *uuid.UUID       `json:"active_business_id,omitempty"`
	Role             enums.MemberRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}
