package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, businessID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, businessID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	BusinessID uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}

	query := listNotificationsParams{
		BusinessID: params.BusinessID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items, next := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return &ListResult{
		Items:  items,
		Cursor: next,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, businessID, notificationID uuid.UUID) error {
	if businessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, businessID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, businessID uuid.UUID) (int64, error) {
	if businessID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}

	count, err := s.repo.MarkAllRead(ctx, businessID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// Notice is a notification to record alongside another write.
type Notice struct {
	BusinessID uuid.UUID
	Type       enums.NotificationType
	Title      string
	Message    string
	Link       *string
}

// Record inserts the notice through repo, which callers bind to their transaction.
func Record(ctx context.Context, repo Repository, tx *gorm.DB, notice Notice) error {
	if !notice.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "invalid notification type %q", notice.Type)
	}
	return repo.WithTx(tx).Create(ctx, &models.Notification{
		BusinessID: notice.BusinessID,
		Type:       notice.Type,
		Title:      notice.Title,
		Message:    notice.Message,
		Link:       notice.Link,
	})
}
