package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

// BusinessMembership links a user to a business with a role. (business_id, user_id) is unique.
type BusinessMembership struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID      uuid.UUID        `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_business_memberships_business_user"`
	UserID          uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_business_memberships_business_user"`
	Role            enums.MemberRole `gorm:"column:role;type:member_role;not null"`
	Permissions     pq.StringArray   `gorm:"column:permissions;type:text[]"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	InvitedByUserID *uuid.UUID       `gorm:"column:invited_by_user_id;type:uuid"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *BusinessMembership) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
