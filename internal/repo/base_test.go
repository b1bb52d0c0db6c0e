package repo

import (
	"context"
	"testing"

	"github.com/angelmondragon/bizledger-backend/internal/testdb"
)

type ctxKey struct{}

func TestNewBaseStoresConnection(t *testing.T) {
	db := testdb.Open(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := testdb.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseBind(t *testing.T) {
	db := testdb.Open(t)
	base := NewBase(db)

	if got := base.Bind(nil); got.db != db {
		t.Fatalf("expected nil tx to keep the original connection")
	}

	tx := db.Begin()
	defer tx.Rollback()
	if got := base.Bind(tx); got.db != tx {
		t.Fatalf("expected bound base to use the transaction")
	}
}
