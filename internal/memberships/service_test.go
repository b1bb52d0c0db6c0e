package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/internal/notifications"
	"github.com/angelmondragon/bizledger-backend/internal/testdb"
	"github.com/angelmondragon/bizledger-backend/internal/users"
	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/db/models"
	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

type fixture struct {
	conn     *gorm.DB
	svc      *Service
	business models.Business
	owner    models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t, testdb.WithMembershipUnique())
	svc, err := NewService(ServiceParams{
		DB:            db.Wrap(conn),
		Repo:          NewRepository(conn),
		Users:         users.NewRepository(conn),
		Notifications: notifications.NewRepository(conn),
	})
	require.NoError(t, err)

	owner := testdb.SeedUser(t, conn, "owner@example.com")
	business := testdb.SeedBusiness(t, conn, "Acme", owner.ID)
	testdb.SeedMembership(t, conn, business.ID, owner.ID, enums.MemberRoleOwner)
	return fixture{conn: conn, svc: svc, business: business, owner: owner}
}

func (f fixture) ownerActor() Actor {
	return Actor{UserID: f.owner.ID, Role: enums.MemberRoleOwner}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, pkgerrors.CodeOf(err), "unexpected error: %v", err)
}

func TestAddMemberCreatesMembershipAndNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testdb.SeedUser(t, f.conn, "clerk@example.com")

	dto, err := f.svc.AddMember(ctx, f.business.ID, f.ownerActor(), AddMemberInput{
		Email:       "CLERK@example.com",
		Role:        enums.MemberRoleAccountant,
		Permissions: []string{"invoices:create"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleAccountant, dto.Role)
	assert.True(t, dto.IsActive)
	require.NotNil(t, dto.InvitedByUserID)
	assert.Equal(t, f.owner.ID, *dto.InvitedByUserID)

	var notices []models.Notification
	require.NoError(t, f.conn.Where("business_id = ?", f.business.ID).Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, enums.NotificationTypeMemberAdded, notices[0].Type)
}

func TestAddMemberCannotGrantAboveOwnRole(t *testing.T) {
	f := newFixture(t)
	testdb.SeedUser(t, f.conn, "boss@example.com")

	_, err := f.svc.AddMember(context.Background(), f.business.ID,
		Actor{UserID: uuid.New(), Role: enums.MemberRoleAdmin},
		AddMemberInput{Email: "boss@example.com", Role: enums.MemberRoleOwner})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestAddMemberUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddMember(context.Background(), f.business.ID, f.ownerActor(),
		AddMemberInput{Email: "ghost@example.com", Role: enums.MemberRoleEmployee})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddMemberDuplicateIsConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddMember(context.Background(), f.business.ID, f.ownerActor(),
		AddMemberInput{Email: "owner@example.com", Role: enums.MemberRoleEmployee})
	requireCode(t, err, pkgerrors.CodeConflict)

	var count int64
	require.NoError(t, f.conn.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddMemberInvalidRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddMember(context.Background(), f.business.ID, f.ownerActor(),
		AddMemberInput{Email: "owner@example.com", Role: "janitor"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateMemberCannotDemoteLastOwner(t *testing.T) {
	f := newFixture(t)
	role := enums.MemberRoleAdmin

	_, err := f.svc.UpdateMember(context.Background(), f.business.ID, f.owner.ID, f.ownerActor(), UpdateMemberInput{Role: &role})
	requireCode(t, err, pkgerrors.CodeConflict)

	inactive := false
	_, err = f.svc.UpdateMember(context.Background(), f.business.ID, f.owner.ID, f.ownerActor(), UpdateMemberInput{IsActive: &inactive})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateMemberDemotesOwnerWhenAnotherExists(t *testing.T) {
	f := newFixture(t)
	second := testdb.SeedUser(t, f.conn, "second@example.com")
	testdb.SeedMembership(t, f.conn, f.business.ID, second.ID, enums.MemberRoleOwner)
	role := enums.MemberRoleAdmin

	dto, err := f.svc.UpdateMember(context.Background(), f.business.ID, f.owner.ID, f.ownerActor(), UpdateMemberInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleAdmin, dto.Role)
}

func TestLastOwnerSurvivesSuccessiveDemotions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := testdb.SeedUser(t, f.conn, "second@example.com")
	testdb.SeedMembership(t, f.conn, f.business.ID, second.ID, enums.MemberRoleOwner)
	secondActor := Actor{UserID: second.ID, Role: enums.MemberRoleOwner}
	role := enums.MemberRoleAdmin

	_, err := f.svc.UpdateMember(ctx, f.business.ID, f.owner.ID, secondActor, UpdateMemberInput{Role: &role})
	require.NoError(t, err)

	_, err = f.svc.UpdateMember(ctx, f.business.ID, second.ID, secondActor, UpdateMemberInput{Role: &role})
	requireCode(t, err, pkgerrors.CodeConflict)
	requireCode(t, f.svc.RemoveMember(ctx, f.business.ID, second.ID, secondActor), pkgerrors.CodeConflict)

	owners, err := NewRepository(f.conn).LockActiveOwners(ctx, f.business.ID)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestUpdateMemberGuardsRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testdb.SeedUser(t, f.conn, "admin@example.com")
	testdb.SeedMembership(t, f.conn, f.business.ID, admin.ID, enums.MemberRoleAdmin)
	clerk := testdb.SeedUser(t, f.conn, "clerk@example.com")
	testdb.SeedMembership(t, f.conn, f.business.ID, clerk.ID, enums.MemberRoleEmployee)
	adminActor := Actor{UserID: admin.ID, Role: enums.MemberRoleAdmin}

	manager := enums.MemberRoleManager
	_, err := f.svc.UpdateMember(ctx, f.business.ID, f.owner.ID, adminActor, UpdateMemberInput{Role: &manager})
	requireCode(t, err, pkgerrors.CodeForbidden)

	owner := enums.MemberRoleOwner
	_, err = f.svc.UpdateMember(ctx, f.business.ID, clerk.ID, adminActor, UpdateMemberInput{Role: &owner})
	requireCode(t, err, pkgerrors.CodeForbidden)

	dto, err := f.svc.UpdateMember(ctx, f.business.ID, clerk.ID, adminActor, UpdateMemberInput{Role: &manager})
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleManager, dto.Role)

	_, err = f.svc.UpdateMember(ctx, f.business.ID, uuid.New(), adminActor, UpdateMemberInput{Role: &manager})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clerk := testdb.SeedUser(t, f.conn, "clerk@example.com")
	testdb.SeedMembership(t, f.conn, f.business.ID, clerk.ID, enums.MemberRoleEmployee)

	requireCode(t, f.svc.RemoveMember(ctx, f.business.ID, f.owner.ID, f.ownerActor()), pkgerrors.CodeConflict)
	requireCode(t, f.svc.RemoveMember(ctx, f.business.ID, f.owner.ID, Actor{UserID: clerk.ID, Role: enums.MemberRoleAdmin}), pkgerrors.CodeForbidden)

	require.NoError(t, f.svc.RemoveMember(ctx, f.business.ID, clerk.ID, f.ownerActor()))
	requireCode(t, f.svc.RemoveMember(ctx, f.business.ID, clerk.ID, f.ownerActor()), pkgerrors.CodeNotFound)

	members, err := f.svc.ListMembers(ctx, f.business.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, f.owner.ID, members[0].UserID)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
