package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key], _ = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

const invoicePattern = "/api/v1/businesses/{businessId}/invoices"

func invoiceRouter(store *fakeStore, calls *int, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(WithSession(req.Context(), &access.Session{UserID: uuid.MustParse("11111111-1111-1111-1111-111111111111")})))
		})
	})
	r.With(Idempotency(store, nil)).Post(invoicePattern, func(w http.ResponseWriter, req *http.Request) {
		*calls++
		body, _ := io.ReadAll(req.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d,"echo":%q}`, *calls, string(body))
	})
	return r
}

func postInvoice(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/businesses/"+uuid.Nil.String()+"/invoices", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestMatchRule(t *testing.T) {
	rule, ok := matchRule(http.MethodPost, invoicePattern)
	if !ok || !rule.required || rule.ttl != invoiceIdempotencyTTL {
		t.Fatalf("unexpected invoice rule %+v %v", rule, ok)
	}
	if rule, ok := matchRule(http.MethodPost, "/api/v1/businesses"); !ok || rule.required {
		t.Fatalf("unexpected business rule %+v %v", rule, ok)
	}
	if _, ok := matchRule(http.MethodGet, invoicePattern); ok {
		t.Fatal("GET should not match")
	}
}

func TestIdempotencyRequiresHeaderForInvoices(t *testing.T) {
	calls := 0
	resp := postInvoice(invoiceRouter(newFakeStore(), &calls, http.StatusCreated), "", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatal("handler should not run")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	router := invoiceRouter(store, &calls, http.StatusCreated)

	first := postInvoice(router, "abc", `{"number":"INV-1"}`)
	second := postInvoice(router, "abc", `{"number":"INV-1"}`)

	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %s vs %s", second.Code, second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replay") != "true" {
		t.Fatal("expected replay header")
	}
	for _, ttl := range store.ttls {
		if ttl != invoiceIdempotencyTTL {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestIdempotencyRejectsBodyChange(t *testing.T) {
	calls := 0
	router := invoiceRouter(newFakeStore(), &calls, http.StatusCreated)

	postInvoice(router, "abc", `{"number":"INV-1"}`)
	resp := postInvoice(router, "abc", `{"number":"INV-2"}`)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	router := invoiceRouter(store, &calls, http.StatusServiceUnavailable)

	postInvoice(router, "retry-me", `{}`)
	postInvoice(router, "retry-me", `{}`)
	if calls != 2 {
		t.Fatalf("expected both attempts to reach the handler, got %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatal("5xx response was stored")
	}
}
