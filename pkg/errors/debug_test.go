package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpNamesKnownConstraintFromPgx(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_invoices_business_number",
		TableName:      "invoices",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("create invoice: %w", pgErr), "invoice number already exists")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %q", d.Code)
	}
	if d.SQLState != "23505" || d.Table != "invoices" {
		t.Fatalf("unexpected sql fields %+v", d)
	}
	if d.Rule != "invoice number already used in business" {
		t.Fatalf("unexpected rule %q", d.Rule)
	}
	if len(d.Causes) < 2 {
		t.Fatalf("expected wrapped causes, got %v", d.Causes)
	}
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("add member: %w", &pq.Error{
		Code:       "23505",
		Constraint: "ux_business_memberships_business_user",
		Table:      "business_memberships",
	})

	d := Dump(err)
	if d.SQLState != "23505" || d.Constraint != "ux_business_memberships_business_user" {
		t.Fatalf("unexpected sql fields %+v", d)
	}
	if d.Rule != "user already belongs to business" {
		t.Fatalf("unexpected rule %q", d.Rule)
	}
	if d.Code != "" {
		t.Fatalf("untyped error should have no code, got %q", d.Code)
	}
}

func TestDumpUnknownConstraintHasNoRule(t *testing.T) {
	d := Dump(&pgconn.PgError{Code: "23503", ConstraintName: "invoices_customer_id_fkey"})
	if d.Rule != "" {
		t.Fatalf("expected empty rule, got %q", d.Rule)
	}
	if Dump(nil).Message != "" {
		t.Fatal("expected empty dump for nil error")
	}
}
