package businesses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/internal/memberships"
	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

// Service exposes business lifecycle operations. Callers have already passed the access gate.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateBusinessRequest) (*BusinessDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]MyBusinessDTO, error)
	Get(ctx context.Context, businessID uuid.UUID) (*BusinessDTO, error)
	Update(ctx context.Context, businessID uuid.UUID, req UpdateBusinessRequest) (*BusinessDTO, error)
	Delete(ctx context.Context, businessID uuid.UUID) error
}

// ServiceParams wires the business service.
type ServiceParams struct {
	DB            db.TxRunner
	Repo          *Repository
	Memberships   *memberships.Repository
	Notifications notifications.Repository
}

type service struct {
	db            db.TxRunner
	repo          *Repository
	memberships   *memberships.Repository
	notifications notifications.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{
		db:            params.DB,
		repo:          params.Repo,
		memberships:   params.Memberships,
		notifications: params.Notifications,
	}, nil
}

// Create inserts the business and its creator's owner membership in one transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateBusinessRequest) (*BusinessDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	currency := enums.CurrencyUSD
	if req.Currency != "" {
		parsed, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		currency = parsed
	}

	business := &models.Business{
		Name:            name,
		LegalName:       trimmedPtr(req.LegalName),
		TaxID:           trimmedPtr(req.TaxID),
		Currency:        currency,
		Email:           trimmedPtr(req.Email),
		Phone:           trimmedPtr(req.Phone),
		Address:         normalizedAddress(req.Address),
		CreatedByUserID: userID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, business); err != nil {
			return err
		}
		_, err := s.memberships.WithTx(tx).CreateMembership(ctx, memberships.CreateMembershipParams{
			BusinessID: business.ID,
			UserID:     userID,
			Role:       enums.MemberRoleOwner,
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create business")
	}
	return FromModel(business), nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]MyBusinessDTO, error) {
	rows, err := s.memberships.ListUserBusinesses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	roles := make(map[uuid.UUID]enums.MemberRole, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		roles[row.BusinessID] = row.Role
		ids = append(ids, row.BusinessID)
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load businesses")
	}
	out := make([]MyBusinessDTO, 0, len(found))
	for i := range found {
		out = append(out, MyBusinessDTO{BusinessDTO: *FromModel(&found[i]), Role: roles[found[i].ID]})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, businessID uuid.UUID) (*BusinessDTO, error) {
	business, err := s.load(ctx, s.repo, businessID)
	if err != nil {
		return nil, err
	}
	return FromModel(business), nil
}

// Update applies the patch and records a business_update notification.
func (s *service) Update(ctx context.Context, businessID uuid.UUID, req UpdateBusinessRequest) (*BusinessDTO, error) {
	var updated *models.Business
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		business, err := s.load(ctx, repo, businessID)
		if err != nil {
			return err
		}
		if err := applyUpdate(business, req); err != nil {
			return err
		}
		if err := repo.Update(ctx, business); err != nil {
			return err
		}
		updated = business
		return notifications.Record(ctx, s.notifications, tx, notifications.Notice{
			BusinessID: businessID,
			Type:       enums.NotificationTypeBusinessUpdate,
			Title:      "Business updated",
			Message:    fmt.Sprintf("%s profile was updated", business.Name),
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update business")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, businessID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, businessID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete business")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, businessID uuid.UUID) (*models.Business, error) {
	business, err := repo.FindByID(ctx, businessID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	return business, nil
}

func applyUpdate(business *models.Business, req UpdateBusinessRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		business.Name = name
	}
	if req.Currency != nil {
		currency, err := enums.ParseCurrency(*req.Currency)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		business.Currency = currency
	}
	if req.LegalName != nil {
		business.LegalName = trimmedPtr(req.LegalName)
	}
	if req.TaxID != nil {
		business.TaxID = trimmedPtr(req.TaxID)
	}
	if req.Email != nil {
		business.Email = trimmedPtr(req.Email)
	}
	if req.Phone != nil {
		business.Phone = trimmedPtr(req.Phone)
	}
	if req.Address != nil {
		business.Address = normalizedAddress(req.Address)
	}
	return nil
}
