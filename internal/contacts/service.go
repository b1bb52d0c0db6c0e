package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
	"github.com/angelmondragon/bizledger-backend/pkg/types"
)

// Service manages the customers and vendors of a business.
type Service interface {
	Create(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, req CreateContactRequest) (*ContactDTO, error)
	Get(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) (*ContactDTO, error)
	List(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error)
	Delete(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contacts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, req CreateContactRequest) (*ContactDTO, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid contact kind %q", kind)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	contact := &models.Contact{
		BusinessID: businessID,
		Kind:       kind,
		Name:       name,
		Email:      trimmedPtr(req.Email),
		Phone:      trimmedPtr(req.Phone),
		TaxID:      trimmedPtr(req.TaxID),
		Address:    normalizedAddress(req.Address),
		Notes:      trimmedPtr(req.Notes),
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
	}
	return FromModel(contact), nil
}

func (s *service) Get(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) (*ContactDTO, error) {
	contact, err := s.load(ctx, businessID, kind, id)
	if err != nil {
		return nil, err
	}
	return FromModel(contact), nil
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, page pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listParams{
		BusinessID: businessID,
		Kind:       kind,
		Limit:      pagination.LimitWithBuffer(page.Limit),
		Cursor:     cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}

	rows, next := pagination.Trim(rows, page.Limit, func(c models.Contact) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	items := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Update(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID, req UpdateContactRequest) (*ContactDTO, error) {
	contact, err := s.load(ctx, businessID, kind, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		contact.Name = name
	}
	if req.Email != nil {
		contact.Email = trimmedPtr(req.Email)
	}
	if req.Phone != nil {
		contact.Phone = trimmedPtr(req.Phone)
	}
	if req.TaxID != nil {
		contact.TaxID = trimmedPtr(req.TaxID)
	}
	if req.Address != nil {
		contact.Address = normalizedAddress(req.Address)
	}
	if req.Notes != nil {
		contact.Notes = trimmedPtr(req.Notes)
	}
	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contact")
	}
	return FromModel(contact), nil
}

func (s *service) Delete(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, businessID, kind, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", kind)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contact")
	}
	return nil
}

func (s *service) load(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) (*models.Contact, error) {
	contact, err := s.repo.Find(ctx, businessID, kind, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", kind)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contact")
	}
	return contact, nil
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
