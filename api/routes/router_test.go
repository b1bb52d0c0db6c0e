package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	"github.com/angelmondragon/bizledger-backend/internal/businesses"
	"github.com/angelmondragon/bizledger-backend/internal/invoices"
	pkgAuth "github.com/angelmondragon/bizledger-backend/pkg/auth"
	"github.com/angelmondragon/bizledger-backend/pkg/config"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubLookup struct {
	membership *access.Membership
	err        error
	calls      int
}

func (s *stubLookup) FindMembership(ctx context.Context, userID, businessID uuid.UUID) (access.Membership, bool, error) {
	s.calls++
	if s.err != nil {
		return access.Membership{}, false, s.err
	}
	if s.membership == nil {
		return access.Membership{}, false, nil
	}
	m := *s.membership
	m.UserID = userID
	m.BusinessID = businessID
	return m, true, nil
}

type stubBusinesses struct {
	businesses.Service
}

func (stubBusinesses) Get(ctx context.Context, id uuid.UUID) (*businesses.BusinessDTO, error) {
	return &businesses.BusinessDTO{ID: id, Name: "Corner Shop"}, nil
}

type stubInvoices struct {
	invoices.Service
	listed int
}

func (s *stubInvoices) List(ctx context.Context, businessID uuid.UUID, params invoices.ListParams) (*invoices.ListResult, error) {
	s.listed++
	return &invoices.ListResult{Items: []invoices.InvoiceDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		JWT:     config.JWTConfig{Secret: "secret", Issuer: "bizledger", ExpirationMinutes: 10},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

type harness struct {
	handler  http.Handler
	lookup   *stubLookup
	invoices *stubInvoices
	token    string
}

func newHarness(t *testing.T, role enums.MemberRole) *harness {
	t.Helper()
	cfg := testConfig()
	lookup := &stubLookup{}
	if role != "" {
		lookup.membership = &access.Membership{Role: role, IsActive: true}
	}
	gate, err := access.NewGate(lookup, access.DefaultHierarchy())
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), JTI: "jti"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	inv := &stubInvoices{}
	h := NewRouter(cfg, nil, prometheus.NewRegistry(), stubPinger{}, nil, stubSessions{}, gate, Services{
		Businesses: stubBusinesses{},
		Invoices:   inv,
	})
	return &harness{handler: h, lookup: lookup, invoices: inv, token: token}
}

func (h *harness) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	h := newHarness(t, "")
	rec := h.do(http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestBusinessRoutesRequireToken(t *testing.T) {
	h := newHarness(t, enums.MemberRoleOwner)
	rec := h.do(http.MethodGet, "/api/v1/businesses/"+uuid.NewString()+"/invoices", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if h.lookup.calls != 0 {
		t.Fatalf("membership lookup should not run, got %d calls", h.lookup.calls)
	}
}

func TestBusinessRoutesWithoutMembership(t *testing.T) {
	h := newHarness(t, "")
	rec := h.do(http.MethodGet, "/api/v1/businesses/"+uuid.NewString()+"/invoices", h.token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "business membership required") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestBusinessRoutesRoleCheck(t *testing.T) {
	h := newHarness(t, enums.MemberRoleEmployee)
	businessID := uuid.NewString()

	rec := h.do(http.MethodGet, "/api/v1/businesses/"+businessID+"/invoices", h.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if h.invoices.listed != 1 {
		t.Fatalf("expected list once got %d", h.invoices.listed)
	}

	rec = h.do(http.MethodDelete, "/api/v1/businesses/"+businessID, h.token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient business role") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestBusinessRoutesLookupFailure(t *testing.T) {
	h := newHarness(t, enums.MemberRoleOwner)
	h.lookup.err = errors.New("connection reset")

	rec := h.do(http.MethodGet, "/api/v1/businesses/"+uuid.NewString()+"/invoices", h.token)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestPageRedirects(t *testing.T) {
	businessID := uuid.NewString()
	tests := []struct {
		name     string
		role     enums.MemberRole
		token    bool
		path     string
		location string
	}{
		{name: "anonymous", role: enums.MemberRoleOwner, path: "/app/businesses/" + businessID, location: access.PathLogin},
		{name: "no membership", token: true, path: "/app/businesses/" + businessID, location: access.PathBusinessSetup},
		{name: "manager on settings", role: enums.MemberRoleManager, token: true, path: "/app/businesses/" + businessID + "/settings", location: access.PathForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.role)
			token := ""
			if tt.token {
				token = h.token
			}
			rec := h.do(http.MethodGet, tt.path, token)
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303 got %d", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Fatalf("expected redirect to %s got %s", tt.location, got)
			}
		})
	}
}

func TestPageAuthorizedWithCookie(t *testing.T) {
	h := newHarness(t, enums.MemberRoleOwner)
	req := httptest.NewRequest(http.MethodGet, "/app/businesses/"+uuid.NewString(), nil)
	req.AddCookie(&http.Cookie{Name: "bizledger_session", Value: h.token})
	rec := httptest.NewRecorder()

	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Corner Shop") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestPlaceholders(t *testing.T) {
	h := newHarness(t, "")
	for _, path := range []string{access.PathLogin, access.PathBusinessSetup, access.PathForbidden} {
		if rec := h.do(http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpointExposesGateDecisions(t *testing.T) {
	h := newHarness(t, "")
	h.do(http.MethodGet, "/api/v1/businesses/"+uuid.NewString()+"/invoices", h.token)

	rec := h.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `bizledger_access_decisions_total{outcome="business_setup",required_role="employee"} 1`) {
		t.Fatalf("missing access decision metric in\n%s", body)
	}
	if !strings.Contains(body, `route="/api/v1/businesses/{businessId}/invoices"`) {
		t.Fatalf("missing route label in\n%s", body)
	}
}
