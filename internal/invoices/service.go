package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

const uniqueNumberConstraint = "ux_invoices_business_number"

// Service issues and settles sales invoices. Callers have already passed the access gate.
type Service interface {
	Create(ctx context.Context, businessID, actorID uuid.UUID, req CreateInvoiceRequest) (*InvoiceDTO, error)
	Get(ctx context.Context, businessID, invoiceID uuid.UUID) (*InvoiceDTO, error)
	List(ctx context.Context, businessID uuid.UUID, params ListParams) (*ListResult, error)
	Transition(ctx context.Context, businessID, invoiceID uuid.UUID, next enums.InvoiceStatus) (*InvoiceDTO, error)
}

// ServiceParams wires the invoice service.
type ServiceParams struct {
	DB            db.TxRunner
	Repo          *Repository
	Notifications notifications.Repository
	Now           func() time.Time
}

type service struct {
	db            db.TxRunner
	repo          *Repository
	notifications notifications.Repository
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:            params.DB,
		repo:          params.Repo,
		notifications: params.Notifications,
		now:           now,
	}, nil
}

func (s *service) Create(ctx context.Context, businessID, actorID uuid.UUID, req CreateInvoiceRequest) (*InvoiceDTO, error) {
	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number is required")
	}
	issueDate, err := parseDate(req.IssueDate, "issue_date")
	if err != nil {
		return nil, err
	}
	var dueDate *time.Time
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		parsed, err := parseDate(*req.DueDate, "due_date")
		if err != nil {
			return nil, err
		}
		if parsed.Before(issueDate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due_date cannot precede issue_date")
		}
		dueDate = &parsed
	}

	lines := make([]LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, LineInput{
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	totals, err := ComputeTotals(lines, req.TaxRate, req.Discount)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		BusinessID: businessID,
		CustomerID: req.CustomerID,
		Number:     number,
		Status:     enums.InvoiceStatusDraft,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		TaxRate:    req.TaxRate,
		Subtotal:   totals.Subtotal,
		TaxAmount:  totals.TaxAmount,
		Discount:   totals.Discount,
		Total:      totals.Total,
		Notes:      trimmedPtr(req.Notes),
		CreatedBy:  actorID,
	}
	for i, line := range lines {
		invoice.Lines = append(invoice.Lines, models.InvoiceLine{
			Position:    i + 1,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   totals.LineTotals[i],
		})
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := repo.FindCustomer(ctx, businessID, req.CustomerID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return err
		}
		if customer.Kind != enums.ContactKindCustomer {
			return pkgerrors.New(pkgerrors.CodeValidation, "contact is not a customer")
		}

		currency, err := s.resolveCurrency(ctx, repo, businessID, req.Currency)
		if err != nil {
			return err
		}
		invoice.Currency = currency
		return repo.Create(ctx, invoice)
	})
	if err != nil {
		if db.IsUniqueViolation(err, uniqueNumberConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "invoice number %s already exists", number)
		}
		return nil, translate(err, "create invoice")
	}
	return FromModel(invoice), nil
}

func (s *service) Get(ctx context.Context, businessID, invoiceID uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.repo.Find(ctx, businessID, invoiceID)
	if err != nil {
		return nil, translate(err, "load invoice")
	}
	return FromModel(invoice), nil
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *params.Status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listParams{
		BusinessID: businessID,
		Status:     params.Status,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		Cursor:     cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(inv models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
	})
	items := make([]InvoiceDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

// Transition moves the invoice one step along draft -> sent -> paid, or to void.
// Paying an invoice records an invoice_paid notification in the same transaction.
func (s *service) Transition(ctx context.Context, businessID, invoiceID uuid.UUID, next enums.InvoiceStatus) (*InvoiceDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", next)
	}

	var invoice *models.Invoice
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindForUpdate(ctx, businessID, invoiceID)
		if err != nil {
			return err
		}
		previous := loaded.Status
		if !previous.CanTransitionTo(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move invoice from %s to %s", loaded.Status, next).
				WithDetails(map[string]any{"from": loaded.Status, "to": next})
		}

		now := s.now().UTC()
		loaded.Status = next
		switch next {
		case enums.InvoiceStatusSent:
			loaded.SentAt = &now
		case enums.InvoiceStatusPaid:
			loaded.PaidAt = &now
		case enums.InvoiceStatusVoid:
			loaded.VoidedAt = &now
		}
		loaded.UpdatedAt = now
		if err := repo.UpdateStatus(ctx, loaded, previous); err != nil {
			return err
		}

		if next == enums.InvoiceStatusPaid {
			link := fmt.Sprintf("/app/businesses/%s/invoices/%s", businessID, loaded.ID)
			err := notifications.Record(ctx, s.notifications, tx, notifications.Notice{
				BusinessID: businessID,
				Type:       enums.NotificationTypeInvoicePaid,
				Title:      "Invoice paid",
				Message:    fmt.Sprintf("Invoice %s was paid (%s %s).", loaded.Number, loaded.Total.StringFixed(2), loaded.Currency),
				Link:       &link,
			})
			if err != nil {
				return err
			}
		}
		invoice = loaded
		return nil
	})
	if err != nil {
		return nil, translate(err, "update invoice status")
	}
	return FromModel(invoice), nil
}

func (s *service) resolveCurrency(ctx context.Context, repo *Repository, businessID uuid.UUID, raw string) (enums.Currency, error) {
	if strings.TrimSpace(raw) != "" {
		currency, err := enums.ParseCurrency(raw)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		return currency, nil
	}
	currency, err := repo.BusinessCurrency(ctx, businessID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return "", err
	}
	return currency, nil
}

func parseDate(value, field string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be YYYY-MM-DD", field)
	}
	return parsed, nil
}

func translate(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	if errors.Is(err, ErrStatusChanged) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice status changed, reload and retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
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
