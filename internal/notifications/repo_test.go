package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bizledger-backend/internal/testdb"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	"github.com/angelmondragon/bizledger-backend/pkg/pagination"
)

func seedNotification(t *testing.T, repo Repository, businessID uuid.UUID, createdAt time.Time) models.Notification {
	t.Helper()
	n := models.Notification{
		ID:         uuid.New(),
		BusinessID: businessID,
		Type:       enums.NotificationTypeSystemAnnouncement,
		Title:      "hello",
		Message:    "world",
		CreatedAt:  createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), &n))
	return n
}

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	ctx := context.Background()
	businessID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := seedNotification(t, repo, businessID, base)
	middle := seedNotification(t, repo, businessID, base.Add(time.Minute))
	newest := seedNotification(t, repo, businessID, base.Add(2*time.Minute))
	seedNotification(t, repo, uuid.New(), base.Add(3*time.Minute))

	rows, err := repo.List(ctx, listNotificationsParams{BusinessID: businessID, Limit: pagination.LimitWithBuffer(2)})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)

	page, next := pagination.Trim(rows, 2, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	require.Len(t, page, 2)
	cursor, err := pagination.ParseCursor(next)
	require.NoError(t, err)

	rest, err := repo.List(ctx, listNotificationsParams{BusinessID: businessID, Limit: pagination.LimitWithBuffer(2), Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestRepositoryMarkReadAndUnreadFilter(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	ctx := context.Background()
	businessID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := seedNotification(t, repo, businessID, now)
	seedNotification(t, repo, businessID, now.Add(time.Minute))

	mark, err := repo.MarkRead(ctx, businessID, first.ID, now)
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	again, err := repo.MarkRead(ctx, businessID, first.ID, now)
	require.NoError(t, err)
	assert.True(t, again.Found)
	assert.False(t, again.Updated)

	other, err := repo.MarkRead(ctx, uuid.New(), first.ID, now)
	require.NoError(t, err)
	assert.False(t, other.Found)

	unread, err := repo.List(ctx, listNotificationsParams{BusinessID: businessID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	count, err := repo.MarkAllRead(ctx, businessID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := uuid.New()
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	seedNotification(t, repo, businessID, now.Add(-40*24*time.Hour))
	kept := seedNotification(t, repo, businessID, now.Add(-time.Hour))

	deleted, err := repo.DeleteOlderThan(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := repo.List(ctx, listNotificationsParams{BusinessID: businessID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, kept.ID, rows[0].ID)
}

func TestRecordUsesTransaction(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := uuid.New()

	tx := db.Begin()
	require.NoError(t, Record(ctx, repo, tx, Notice{
		BusinessID: businessID,
		Type:       enums.NotificationTypeInvoicePaid,
		Title:      "Invoice paid",
		Message:    "INV-1 was paid",
	}))
	require.NoError(t, tx.Rollback().Error)

	rows, err := repo.List(ctx, listNotificationsParams{BusinessID: businessID, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = Record(ctx, repo, nil, Notice{BusinessID: businessID, Type: "bogus", Title: "x", Message: "y"})
	require.Error(t, err)
}
