package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/api/middleware"
	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/businesses"
	"github.com/angelmondragon/bizledger-backend/internal/contacts"
	"github.com/angelmondragon/bizledger-backend/internal/invoices"
	"github.com/angelmondragon/bizledger-backend/internal/memberships"
	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/pkg/config"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

func gatedRequest(method, target, body string, m access.Membership, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithSession(ctx, &access.Session{UserID: m.UserID, AccessID: "jti"})
	ctx = middleware.WithMembership(ctx, m)
	return req.WithContext(ctx)
}

func membership(role enums.MemberRole) access.Membership {
	return access.Membership{UserID: uuid.New(), BusinessID: uuid.New(), Role: role, IsActive: true}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandlersRequireGatedMembership(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/businesses/x/invoices", nil)
	rec := httptest.NewRecorder()

	ListInvoices(&stubInvoices{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

type stubInvoices struct {
	created    invoices.CreateInvoiceRequest
	createdBy  uuid.UUID
	listParams invoices.ListParams
	next       enums.InvoiceStatus
	err        error
}

func (s *stubInvoices) Create(ctx context.Context, businessID, actorID uuid.UUID, req invoices.CreateInvoiceRequest) (*invoices.InvoiceDTO, error) {
	s.created = req
	s.createdBy = actorID
	if s.err != nil {
		return nil, s.err
	}
	return &invoices.InvoiceDTO{ID: uuid.New(), BusinessID: businessID, Number: req.Number}, nil
}

func (s *stubInvoices) Get(ctx context.Context, businessID, invoiceID uuid.UUID) (*invoices.InvoiceDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &invoices.InvoiceDTO{ID: invoiceID, BusinessID: businessID}, nil
}

func (s *stubInvoices) List(ctx context.Context, businessID uuid.UUID, params invoices.ListParams) (*invoices.ListResult, error) {
	s.listParams = params
	return &invoices.ListResult{Items: []invoices.InvoiceDTO{}, Cursor: "next"}, s.err
}

func (s *stubInvoices) Transition(ctx context.Context, businessID, invoiceID uuid.UUID, next enums.InvoiceStatus) (*invoices.InvoiceDTO, error) {
	s.next = next
	if s.err != nil {
		return nil, s.err
	}
	return &invoices.InvoiceDTO{ID: invoiceID, Status: next}, nil
}

func TestCreateInvoice(t *testing.T) {
	svc := &stubInvoices{}
	m := membership(enums.MemberRoleAccountant)
	body := `{"customer_id":"` + uuid.NewString() + `","number":"INV-1","issue_date":"2026-01-02","lines":[{"description":"Work","quantity":"2","unit_price":"10.00"}]}`
	req := gatedRequest(http.MethodPost, "/invoices", body, m, nil)
	rec := httptest.NewRecorder()

	CreateInvoice(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createdBy != m.UserID || svc.created.Number != "INV-1" {
		t.Fatalf("unexpected create inputs %s %+v", svc.createdBy, svc.created)
	}
}

func TestCreateInvoiceRequiresLines(t *testing.T) {
	m := membership(enums.MemberRoleAccountant)
	body := `{"customer_id":"` + uuid.NewString() + `","number":"INV-1","issue_date":"2026-01-02","lines":[]}`
	req := gatedRequest(http.MethodPost, "/invoices", body, m, nil)
	rec := httptest.NewRecorder()

	CreateInvoice(&stubInvoices{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListInvoicesStatusFilter(t *testing.T) {
	svc := &stubInvoices{}
	req := gatedRequest(http.MethodGet, "/invoices?status=sent&limit=10", "", membership(enums.MemberRoleEmployee), nil)
	rec := httptest.NewRecorder()

	ListInvoices(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listParams.Status == nil || *svc.listParams.Status != enums.InvoiceStatusSent {
		t.Fatalf("expected sent filter got %+v", svc.listParams.Status)
	}
	if svc.listParams.Limit != 10 {
		t.Fatalf("expected limit 10 got %d", svc.listParams.Limit)
	}
	var envelope struct {
		NextCursor string `json:"next_cursor"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.NextCursor != "next" {
		t.Fatalf("expected cursor next got %q", envelope.NextCursor)
	}
}

func TestListInvoicesRejectsUnknownStatus(t *testing.T) {
	req := gatedRequest(http.MethodGet, "/invoices?status=archived", "", membership(enums.MemberRoleEmployee), nil)
	rec := httptest.NewRecorder()

	ListInvoices(&stubInvoices{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetInvoiceMalformedID(t *testing.T) {
	req := gatedRequest(http.MethodGet, "/invoices/nope", "", membership(enums.MemberRoleEmployee), map[string]string{"invoiceId": "nope"})
	rec := httptest.NewRecorder()

	GetInvoice(&stubInvoices{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateInvoiceStatus(t *testing.T) {
	svc := &stubInvoices{}
	id := uuid.New()
	req := gatedRequest(http.MethodPost, "/status", `{"status":"paid"}`, membership(enums.MemberRoleAccountant), map[string]string{"invoiceId": id.String()})
	rec := httptest.NewRecorder()

	UpdateInvoiceStatus(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.next != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid got %s", svc.next)
	}
}

func TestUpdateInvoiceStatusConflict(t *testing.T) {
	svc := &stubInvoices{err: pkgerrors.New(pkgerrors.CodeStateConflict, "invoice cannot move from paid to draft")}
	req := gatedRequest(http.MethodPost, "/status", `{"status":"draft"}`, membership(enums.MemberRoleAccountant), map[string]string{"invoiceId": uuid.NewString()})
	rec := httptest.NewRecorder()

	UpdateInvoiceStatus(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

type stubContacts struct {
	kind enums.ContactKind
	page pagination.Params
	err  error
}

func (s *stubContacts) Create(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, req contacts.CreateContactRequest) (*contacts.ContactDTO, error) {
	s.kind = kind
	return &contacts.ContactDTO{ID: uuid.New(), BusinessID: businessID, Kind: kind, Name: req.Name}, s.err
}

func (s *stubContacts) Get(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) (*contacts.ContactDTO, error) {
	s.kind = kind
	if s.err != nil {
		return nil, s.err
	}
	return &contacts.ContactDTO{ID: id, BusinessID: businessID, Kind: kind}, nil
}

func (s *stubContacts) List(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, page pagination.Params) (*contacts.ListResult, error) {
	s.kind = kind
	s.page = page
	return &contacts.ListResult{Items: []contacts.ContactDTO{}}, s.err
}

func (s *stubContacts) Update(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID, req contacts.UpdateContactRequest) (*contacts.ContactDTO, error) {
	s.kind = kind
	return &contacts.ContactDTO{ID: id, Kind: kind}, s.err
}

func (s *stubContacts) Delete(ctx context.Context, businessID uuid.UUID, kind enums.ContactKind, id uuid.UUID) error {
	s.kind = kind
	return s.err
}

func TestContactHandlersPassKind(t *testing.T) {
	svc := &stubContacts{}
	m := membership(enums.MemberRoleManager)

	rec := httptest.NewRecorder()
	CreateContact(svc, enums.ContactKindVendor, nil).ServeHTTP(rec, gatedRequest(http.MethodPost, "/vendors", `{"name":"Acme Supply"}`, m, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.kind != enums.ContactKindVendor {
		t.Fatalf("expected vendor got %s", svc.kind)
	}

	rec = httptest.NewRecorder()
	ListContacts(svc, enums.ContactKindCustomer, nil).ServeHTTP(rec, gatedRequest(http.MethodGet, "/customers?limit=5", "", m, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.kind != enums.ContactKindCustomer || svc.page.Limit != 5 {
		t.Fatalf("unexpected list inputs %s %+v", svc.kind, svc.page)
	}
}

func TestDeleteContact(t *testing.T) {
	svc := &stubContacts{}
	req := gatedRequest(http.MethodDelete, "/customers/x", "", membership(enums.MemberRoleAdmin), map[string]string{"contactId": uuid.NewString()})
	rec := httptest.NewRecorder()

	DeleteContact(svc, enums.ContactKindCustomer, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}

func TestGetContactNotFound(t *testing.T) {
	svc := &stubContacts{err: pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")}
	req := gatedRequest(http.MethodGet, "/customers/x", "", membership(enums.MemberRoleEmployee), map[string]string{"contactId": uuid.NewString()})
	rec := httptest.NewRecorder()

	GetContact(svc, enums.ContactKindCustomer, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

type stubMembers struct {
	actor  memberships.Actor
	add    memberships.AddMemberInput
	update memberships.UpdateMemberInput
	target uuid.UUID
	err    error
}

func (s *stubMembers) ListMembers(ctx context.Context, businessID uuid.UUID) ([]memberships.MemberDTO, error) {
	return []memberships.MemberDTO{{BusinessID: businessID, Role: enums.MemberRoleOwner}}, s.err
}

func (s *stubMembers) AddMember(ctx context.Context, businessID uuid.UUID, actor memberships.Actor, input memberships.AddMemberInput) (*memberships.MembershipDTO, error) {
	s.actor = actor
	s.add = input
	if s.err != nil {
		return nil, s.err
	}
	return &memberships.MembershipDTO{BusinessID: businessID, Role: input.Role}, nil
}

func (s *stubMembers) UpdateMember(ctx context.Context, businessID, userID uuid.UUID, actor memberships.Actor, input memberships.UpdateMemberInput) (*memberships.MembershipDTO, error) {
	s.actor = actor
	s.target = userID
	s.update = input
	if s.err != nil {
		return nil, s.err
	}
	return &memberships.MembershipDTO{BusinessID: businessID, UserID: userID}, nil
}

func (s *stubMembers) RemoveMember(ctx context.Context, businessID, userID uuid.UUID, actor memberships.Actor) error {
	s.actor = actor
	s.target = userID
	return s.err
}

func TestAddMemberUsesGatedActor(t *testing.T) {
	svc := &stubMembers{}
	m := membership(enums.MemberRoleAdmin)
	req := gatedRequest(http.MethodPost, "/members", `{"email":"new@example.com","role":"manager"}`, m, nil)
	rec := httptest.NewRecorder()

	AddMember(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.actor.UserID != m.UserID || svc.actor.Role != enums.MemberRoleAdmin {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
	if svc.add.Role != enums.MemberRoleManager || svc.add.Email != "new@example.com" {
		t.Fatalf("unexpected input %+v", svc.add)
	}
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	req := gatedRequest(http.MethodPost, "/members", `{"email":"new@example.com","role":"superuser"}`, membership(enums.MemberRoleAdmin), nil)
	rec := httptest.NewRecorder()

	AddMember(&stubMembers{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUpdateMemberPartial(t *testing.T) {
	svc := &stubMembers{}
	target := uuid.New()
	req := gatedRequest(http.MethodPatch, "/members/x", `{"is_active":false}`, membership(enums.MemberRoleOwner), map[string]string{"userId": target.String()})
	rec := httptest.NewRecorder()

	UpdateMember(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.target != target || svc.update.Role != nil || svc.update.IsActive == nil || *svc.update.IsActive {
		t.Fatalf("unexpected update %+v", svc.update)
	}
}

func TestRemoveLastOwnerConflict(t *testing.T) {
	svc := &stubMembers{err: pkgerrors.New(pkgerrors.CodeConflict, "business must keep an active owner")}
	req := gatedRequest(http.MethodDelete, "/members/x", "", membership(enums.MemberRoleOwner), map[string]string{"userId": uuid.NewString()})
	rec := httptest.NewRecorder()

	RemoveMember(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

type stubNotifications struct {
	params notifications.ListParams
	read   uuid.UUID
}

func (s *stubNotifications) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.params = params
	return &notifications.ListResult{}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, businessID, notificationID uuid.UUID) error {
	s.read = notificationID
	return nil
}

func (s *stubNotifications) MarkAllRead(ctx context.Context, businessID uuid.UUID) (int64, error) {
	return 3, nil
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	svc := &stubNotifications{}
	m := membership(enums.MemberRoleEmployee)
	rec := httptest.NewRecorder()

	ListNotifications(svc, nil).ServeHTTP(rec, gatedRequest(http.MethodGet, "/notifications?unread=true", "", m, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.params.UnreadOnly || svc.params.BusinessID != m.BusinessID {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(&stubNotifications{}, nil).ServeHTTP(rec, gatedRequest(http.MethodPost, "/read-all", "", membership(enums.MemberRoleEmployee), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var data map[string]int64
	decodeData(t, rec, &data)
	if data["updated"] != 3 {
		t.Fatalf("expected 3 updated got %v", data)
	}
}

type stubBusinesses struct {
	createdBy uuid.UUID
	deleted   uuid.UUID
}

func (s *stubBusinesses) Create(ctx context.Context, userID uuid.UUID, req businesses.CreateBusinessRequest) (*businesses.BusinessDTO, error) {
	s.createdBy = userID
	return &businesses.BusinessDTO{ID: uuid.New(), Name: req.Name}, nil
}

func (s *stubBusinesses) ListForUser(ctx context.Context, userID uuid.UUID) ([]businesses.MyBusinessDTO, error) {
	return []businesses.MyBusinessDTO{}, nil
}

func (s *stubBusinesses) Get(ctx context.Context, businessID uuid.UUID) (*businesses.BusinessDTO, error) {
	return &businesses.BusinessDTO{ID: businessID, Name: "Corner Shop"}, nil
}

func (s *stubBusinesses) Update(ctx context.Context, businessID uuid.UUID, req businesses.UpdateBusinessRequest) (*businesses.BusinessDTO, error) {
	return &businesses.BusinessDTO{ID: businessID}, nil
}

func (s *stubBusinesses) Delete(ctx context.Context, businessID uuid.UUID) error {
	s.deleted = businessID
	return nil
}

func TestCreateBusinessRequiresSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/businesses", bytes.NewBufferString(`{"name":"Corner Shop"}`))
	rec := httptest.NewRecorder()

	CreateBusiness(&stubBusinesses{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestDeleteBusinessUsesGatedBusiness(t *testing.T) {
	svc := &stubBusinesses{}
	m := membership(enums.MemberRoleOwner)
	rec := httptest.NewRecorder()

	DeleteBusiness(svc, nil).ServeHTTP(rec, gatedRequest(http.MethodDelete, "/", "", m, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.deleted != m.BusinessID {
		t.Fatalf("expected %s deleted got %s", m.BusinessID, svc.deleted)
	}
}

func TestBusinessSettingsPage(t *testing.T) {
	m := membership(enums.MemberRoleAdmin)
	rec := httptest.NewRecorder()

	BusinessSettingsPage(&stubBusinesses{}, &stubMembers{}, nil).ServeHTTP(rec, gatedRequest(http.MethodGet, "/settings", "", m, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var page struct {
		Page       string `json:"page"`
		Membership struct {
			Role string `json:"role"`
		} `json:"membership"`
		Members []memberships.MemberDTO `json:"members"`
	}
	decodeData(t, rec, &page)
	if page.Page != "settings" || page.Membership.Role != "admin" || len(page.Members) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": okPinger{}, "redis": okPinger{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": okPinger{}, "redis": failingPinger{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if rec.Header().Get("X-Bizledger-Env") != "test" {
		t.Fatalf("missing env header")
	}
}
