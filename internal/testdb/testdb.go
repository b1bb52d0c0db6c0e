// Package testdb opens throwaway sqlite databases shaped like the Postgres schema.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// schema mirrors the tables created by pkg/migrate/migrations in sqlite types, one
// statement per table in migration order. TestSchemaMatchesMigrations keeps the
// column sets in step.
var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  legal_name TEXT,
  tax_id TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  email TEXT,
  phone TEXT,
  address TEXT,
  created_by_user_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE business_memberships (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL,
  permissions TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  invited_by_user_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE contacts (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  tax_id TEXT,
  address TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE invoices (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  currency TEXT NOT NULL,
  issue_date DATETIME NOT NULL,
  due_date DATETIME,
  tax_rate TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  tax_amount TEXT NOT NULL,
  discount TEXT NOT NULL,
  total TEXT NOT NULL,
  notes TEXT,
  created_by TEXT NOT NULL,
  sent_at DATETIME,
  paid_at DATETIME,
  voided_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (business_id, number)
);`,
	`CREATE TABLE invoice_lines (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  description TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  line_total TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns an isolated in-memory database with every application table.
// The membership uniqueness constraint is left out unless WithMembershipUnique is passed,
// so tests can seed the duplicate rows the lookup must reject.
func Open(t *testing.T, opts ...Option) *gorm.DB {
	t.Helper()

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=UTC", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	if cfg.membershipUnique {
		require.NoError(t, conn.Exec(`CREATE UNIQUE INDEX ux_business_memberships_business_user ON business_memberships (business_id, user_id);`).Error)
	}

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

type options struct {
	membershipUnique bool
}

type Option func(*options)

// WithMembershipUnique adds the (business_id, user_id) unique index.
func WithMembershipUnique() Option {
	return func(o *options) { o.membershipUnique = true }
}
