package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestMembershipMigrationEnforcesUniquePair(t *testing.T) {
	content := readEmbedded(t, "_create_business_memberships.sql")
	for _, sub := range []string{
		"CONSTRAINT ux_business_memberships_business_user UNIQUE (business_id, user_id)",
		"role member_role NOT NULL",
		"is_active boolean NOT NULL DEFAULT true",
		"DROP TABLE IF EXISTS business_memberships",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRoleEnumMatchesHierarchy(t *testing.T) {
	content := readEmbedded(t, "_create_enums.sql")
	if !strings.Contains(content, "'owner', 'admin', 'manager', 'accountant', 'employee'") {
		t.Fatalf("member_role enum out of sync: %s", content)
	}
}

func TestBusinessesAreSoftDeleted(t *testing.T) {
	content := readEmbedded(t, "_create_businesses.sql")
	if !strings.Contains(content, "deleted_at timestamptz") {
		t.Fatalf("businesses must carry deleted_at")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Invoice Memo!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260304050607_add_invoice_memo.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "add invoice memo", now); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
	if _, err := CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatalf("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_broken.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected missing Down section to fail")
	}
}

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(embedded, embeddedDir+"/*"+suffix)
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one migration matching %s, got %v", suffix, matches)
	}
	data, err := fs.ReadFile(embedded, matches[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}
