package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

const (
	membershipUniqueConstraint = "ux_business_memberships_business_user"
	lastOwnerMessage           = "business must keep at least one active owner"
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Actor is the member performing a roster change.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// AddMemberInput adds an existing user to a business.
type AddMemberInput struct {
	Email       string
	Role        enums.MemberRole
	Permissions []string
}

// UpdateMemberInput carries optional changes for a member.
type UpdateMemberInput struct {
	Role        *enums.MemberRole
	IsActive    *bool
	Permissions *[]string
}

// ServiceParams wires the membership service.
type ServiceParams struct {
	DB            db.TxRunner
	Repo          *Repository
	Users         userFinder
	Notifications notifications.Repository
	Hierarchy     access.Hierarchy
}

// Service manages the roster of a business.
type Service struct {
	db            db.TxRunner
	repo          *Repository
	users         userFinder
	notifications notifications.Repository
	hierarchy     access.Hierarchy
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	hierarchy := params.Hierarchy
	if hierarchy.Level(enums.MemberRoleOwner) == 0 {
		hierarchy = access.DefaultHierarchy()
	}
	return &Service{
		db:            params.DB,
		repo:          params.Repo,
		users:         params.Users,
		notifications: params.Notifications,
		hierarchy:     hierarchy,
	}, nil
}

func (s *Service) ListMembers(ctx context.Context, businessID uuid.UUID) ([]MemberDTO, error) {
	members, err := s.repo.ListBusinessMembers(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return members, nil
}

// ListUserBusinesses returns the businesses the user can switch into.
func (s *Service) ListUserBusinesses(ctx context.Context, userID uuid.UUID) ([]MembershipWithBusiness, error) {
	rows, err := s.repo.ListUserBusinesses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list businesses")
	}
	return rows, nil
}

// AddMember grants an existing user a role in the business and notifies the business.
func (s *Service) AddMember(ctx context.Context, businessID uuid.UUID, actor Actor, input AddMemberInput) (*MembershipDTO, error) {
	if !input.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", input.Role)
	}
	if !s.hierarchy.HasAtLeastRole(actor.Role, input.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot grant a role above your own")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	var created *models.BusinessMembership
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		membership, err := s.repo.WithTx(tx).CreateMembership(ctx, CreateMembershipParams{
			BusinessID:  businessID,
			UserID:      user.ID,
			Role:        input.Role,
			Permissions: input.Permissions,
			InvitedBy:   &actor.UserID,
		})
		if err != nil {
			return err
		}
		created = membership

		return notifications.Record(ctx, s.notifications, tx, notifications.Notice{
			BusinessID: businessID,
			Type:       enums.NotificationTypeMemberAdded,
			Title:      "New member",
			Message:    fmt.Sprintf("%s %s joined as %s", user.FirstName, user.LastName, input.Role),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, membershipUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member of this business")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add member")
	}
	return ToDTO(created), nil
}

// UpdateMember changes role, activity or permissions of a member.
func (s *Service) UpdateMember(ctx context.Context, businessID, userID uuid.UUID, actor Actor, input UpdateMemberInput) (*MembershipDTO, error) {
	if input.Role != nil && !input.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
	}

	var updated *models.BusinessMembership
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		target, err := s.loadTarget(ctx, repo, businessID, userID, actor)
		if err != nil {
			return err
		}
		if input.Role != nil && !s.hierarchy.HasAtLeastRole(actor.Role, *input.Role) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot grant a role above your own")
		}

		losesOwner := target.Role == enums.MemberRoleOwner && target.IsActive &&
			((input.Role != nil && *input.Role != enums.MemberRoleOwner) || (input.IsActive != nil && !*input.IsActive))
		if losesOwner {
			if err := ensureAnotherOwner(ctx, repo, businessID); err != nil {
				return err
			}
		}

		updated, err = repo.UpdateMembership(ctx, businessID, userID, MembershipChanges{
			Role:        input.Role,
			IsActive:    input.IsActive,
			Permissions: input.Permissions,
		})
		return err
	})
	if err != nil {
		return nil, translate(err, "update member")
	}
	return ToDTO(updated), nil
}

// RemoveMember deletes a membership under the same guards as UpdateMember.
func (s *Service) RemoveMember(ctx context.Context, businessID, userID uuid.UUID, actor Actor) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		target, err := s.loadTarget(ctx, repo, businessID, userID, actor)
		if err != nil {
			return err
		}
		if target.Role == enums.MemberRoleOwner && target.IsActive {
			if err := ensureAnotherOwner(ctx, repo, businessID); err != nil {
				return err
			}
		}
		return repo.DeleteMembership(ctx, businessID, userID)
	})
	if err != nil {
		return translate(err, "remove member")
	}
	return nil
}

func (s *Service) loadTarget(ctx context.Context, repo *Repository, businessID, userID uuid.UUID, actor Actor) (*models.BusinessMembership, error) {
	target, err := repo.GetMembership(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if s.hierarchy.Outranks(target.Role, actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot modify a member with a higher role")
	}
	return target, nil
}

// ensureAnotherOwner fails when the business has a single active owner left. The owner
// rows stay locked until the caller's transaction commits.
func ensureAnotherOwner(ctx context.Context, repo *Repository, businessID uuid.UUID) error {
	owners, err := repo.LockActiveOwners(ctx, businessID)
	if err != nil {
		return err
	}
	if len(owners) <= 1 {
		return pkgerrors.New(pkgerrors.CodeConflict, lastOwnerMessage)
	}
	return nil
}

func translate(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
