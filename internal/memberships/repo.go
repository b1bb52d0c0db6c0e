package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/repo"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository that runs inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Bind(tx)}
}

var _ access.MembershipLookup = (*Repository)(nil)

// FindMembership loads the single membership row for (userID, businessID). Memberships of
// deleted businesses do not exist for this lookup.
func (r *Repository) FindMembership(ctx context.Context, userID, businessID uuid.UUID) (access.Membership, bool, error) {
	var rows []models.BusinessMembership
	err := r.DB(ctx).
		Model(&models.BusinessMembership{}).
		Select("business_memberships.*").
		Joins("JOIN businesses ON businesses.id = business_memberships.business_id AND businesses.deleted_at IS NULL").
		Where("business_memberships.user_id = ? AND business_memberships.business_id = ?", userID, businessID).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return access.Membership{}, false, err
	}

	switch len(rows) {
	case 0:
		return access.Membership{}, false, nil
	case 1:
		return toAccessMembership(rows[0]), true, nil
	default:
		return access.Membership{}, false, access.ErrMultipleMemberships
	}
}

// ListUserBusinesses returns the live businesses where the user holds an active membership.
func (r *Repository) ListUserBusinesses(ctx context.Context, userID uuid.UUID) ([]MembershipWithBusiness, error) {
	var rows []membershipWithBusinessRow

	err := r.DB(ctx).
		Model(&models.BusinessMembership{}).
		Select("business_memberships.*, businesses.name AS business_name, businesses.currency AS business_currency").
		Joins("JOIN businesses ON businesses.id = business_memberships.business_id AND businesses.deleted_at IS NULL").
		Where("business_memberships.user_id = ? AND business_memberships.is_active = ?", userID, true).
		Order("businesses.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return membershipRowsToDTO(rows), nil
}

// GetMembership retrieves a membership by user and business.
func (r *Repository) GetMembership(ctx context.Context, userID, businessID uuid.UUID) (*models.BusinessMembership, error) {
	var membership models.BusinessMembership
	err := r.DB(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CreateMembershipParams describes a new membership row.
type CreateMembershipParams struct {
	BusinessID  uuid.UUID
	UserID      uuid.UUID
	Role        enums.MemberRole
	Permissions []string
	InvitedBy   *uuid.UUID
}

// CreateMembership persists a new active membership record.
func (r *Repository) CreateMembership(ctx context.Context, params CreateMembershipParams) (*models.BusinessMembership, error) {
	if !params.Role.IsValid() {
		return nil, fmt.Errorf("invalid member role %q", params.Role)
	}

	membership := &models.BusinessMembership{
		BusinessID:      params.BusinessID,
		UserID:          params.UserID,
		Role:            params.Role,
		Permissions:     pq.StringArray(params.Permissions),
		IsActive:        true,
		InvitedByUserID: params.InvitedBy,
	}

	if err := r.DB(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// MembershipChanges lists the mutable membership columns; nil fields are left alone.
type MembershipChanges struct {
	Role        *enums.MemberRole
	IsActive    *bool
	Permissions *[]string
}

func (c MembershipChanges) empty() bool {
	return c.Role == nil && c.IsActive == nil && c.Permissions == nil
}

// UpdateMembership applies changes and returns the refreshed row.
func (r *Repository) UpdateMembership(ctx context.Context, businessID, userID uuid.UUID, changes MembershipChanges) (*models.BusinessMembership, error) {
	if !changes.empty() {
		updates := map[string]any{}
		if changes.Role != nil {
			if !changes.Role.IsValid() {
				return nil, fmt.Errorf("invalid member role %q", *changes.Role)
			}
			updates["role"] = *changes.Role
		}
		if changes.IsActive != nil {
			updates["is_active"] = *changes.IsActive
		}
		if changes.Permissions != nil {
			updates["permissions"] = pq.StringArray(*changes.Permissions)
		}

		result := r.DB(ctx).
			Model(&models.BusinessMembership{}).
			Where("business_id = ? AND user_id = ?", businessID, userID).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetMembership(ctx, userID, businessID)
}

// DeleteMembership removes the membership row. Missing rows yield gorm.ErrRecordNotFound.
func (r *Repository) DeleteMembership(ctx context.Context, businessID, userID uuid.UUID) error {
	result := r.DB(ctx).
		Where("business_id = ? AND user_id = ?", businessID, userID).
		Delete(&models.BusinessMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockActiveOwners returns the ids of the active owner memberships of the business and
// holds a row lock on each until the transaction ends. A concurrent caller blocks, then
// re-reads the rows, so an owner demoted in the meantime is no longer counted.
func (r *Repository) LockActiveOwners(ctx context.Context, businessID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := activeOwnersForUpdate(r.DB(ctx), businessID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func activeOwnersForUpdate(db *gorm.DB, businessID uuid.UUID) *gorm.DB {
	return db.
		Model(&models.BusinessMembership{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND role = ? AND is_active = ?", businessID, enums.MemberRoleOwner, true).
		Order("id")
}

// ListBusinessMembers returns memberships for the business along with user metadata.
func (r *Repository) ListBusinessMembers(ctx context.Context, businessID uuid.UUID) ([]MemberDTO, error) {
	var rows []memberRow
	err := r.DB(ctx).
		Model(&models.BusinessMembership{}).
		Select("business_memberships.*, users.email, users.first_name, users.last_name, users.last_login_at").
		Joins("JOIN users ON users.id = business_memberships.user_id").
		Where("business_memberships.business_id = ?", businessID).
		Order("business_memberships.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return membersFromRows(rows), nil
}
