package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCreateUserWithRoles(t *testing.T) {
	f := newFixture(t)
	_, err := f.roles.CreateRole(f.ctx, "agent", nil)
	require.NoError(t, err)
	admin := f.user(t, "Root", "root@example.com")

	user, err := f.users.CreateUser(f.ctx, admin.ID, UserCreateInput{
		Name: "Ada", Email: "Ada@Example.com", Password: "s3cretpass", Roles: []string{"agent"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []string{"agent"}, user.Roles)
	assert.NotEqual(t, "s3cretpass", user.PasswordHash)

	logs := f.store.ActivitiesFor(domain.LogUser)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created user with email: ada@example.com", logs[0].Description)

	_, err = f.users.CreateUser(f.ctx, admin.ID, UserCreateInput{Name: "Ada", Email: "ADA@example.com", Password: "s3cretpass"})
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Equal(t, []string{"The email has already been taken."}, de.Details["email"])

	_, err = f.users.CreateUser(f.ctx, admin.ID, UserCreateInput{Name: "Eve", Email: "eve@example.com", Password: "s3cretpass", Roles: []string{"ghost"}})
	de = requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "roles")
}

func TestUpdateUserAuditsChangedFields(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "Root", "root@example.com")
	user, err := f.users.CreateUser(f.ctx, admin.ID, UserCreateInput{Name: "Ada", Email: "ada@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	updated, err := f.users.UpdateUser(f.ctx, admin.ID, user.ID, UserUpdateInput{
		Name:  util.Some("Ada Lovelace"),
		Email: util.Some("ada@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	logs := f.store.ActivitiesFor(domain.LogUser)
	require.Len(t, logs, 2)
	assert.Equal(t, "Updated user with email: ada@example.com", logs[1].Description)
	assert.Equal(t, map[string]any{"name": "Ada Lovelace"}, logs[1].Properties["attributes"])

	_, err = f.users.UpdateUser(f.ctx, admin.ID, user.ID, UserUpdateInput{Email: util.Some("root@example.com")})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.users.UpdateUser(f.ctx, admin.ID, user.ID, UserUpdateInput{Password: util.Some("an0therpass")})
	require.NoError(t, err)
	assert.Len(t, f.store.ActivitiesFor(domain.LogUser), 2, "password-only change is not audited")
}

func TestUpdateUserAuditsRoleAssignment(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"agent", "super-admin"} {
		_, err := f.roles.CreateRole(f.ctx, name, nil)
		require.NoError(t, err)
	}
	admin := f.user(t, "Root", "root@example.com")
	eve, err := f.users.CreateUser(f.ctx, admin.ID, UserCreateInput{
		Name: "Eve", Email: "eve@example.com", Password: "s3cretpass", Roles: []string{"agent"},
	})
	require.NoError(t, err)
	require.Len(t, f.store.ActivitiesFor(domain.LogUser), 1)

	updated, err := f.users.UpdateUser(f.ctx, admin.ID, eve.ID, UserUpdateInput{Roles: util.Some([]string{"super-admin"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"super-admin"}, updated.Roles)

	logs := f.store.ActivitiesFor(domain.LogUser)
	require.Len(t, logs, 2)
	assert.Equal(t, "Updated user with email: eve@example.com", logs[1].Description)
	assert.Equal(t, map[string]any{"roles": []string{"super-admin"}}, logs[1].Properties["attributes"])
	assert.Equal(t, map[string]any{"roles": []string{"agent"}}, logs[1].Properties["old"])

	_, err = f.users.UpdateUser(f.ctx, admin.ID, eve.ID, UserUpdateInput{Roles: util.Some([]string{"super-admin", "super-admin"})})
	require.NoError(t, err)
	assert.Len(t, f.store.ActivitiesFor(domain.LogUser), 2, "same role set is not audited")

	_, err = f.users.UpdateUser(f.ctx, admin.ID, eve.ID, UserUpdateInput{Roles: util.Some([]string{})})
	require.NoError(t, err)
	logs = f.store.ActivitiesFor(domain.LogUser)
	require.Len(t, logs, 3)
	assert.Equal(t, map[string]any{"roles": []string{}}, logs[2].Properties["attributes"])
}

func TestDeleteUserCascadesTickets(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "Root", "root@example.com")
	ada := f.user(t, "Ada", "ada@example.com")
	own := f.ticket(t, ada, "Printer jam")
	assigned, err := f.tickets.CreateTicket(f.ctx, admin.ID, TicketCreateInput{Title: "VPN", AssignedToUserID: &ada.ID})
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(f.ctx, admin.ID, ada.ID))
	assert.False(t, f.store.HasTicket(own.ID))

	kept, err := f.tickets.GetTicket(f.ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.AssignedToUserID)

	logs := f.store.ActivitiesFor(domain.LogUser)
	assert.Equal(t, "Deleted user with ID: "+ada.ID, logs[len(logs)-1].Description)

	_, err = f.users.GetUser(f.ctx, ada.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestDeleteSelfLeavesNoCauser(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "Ada", "ada@example.com")

	require.NoError(t, f.users.DeleteUser(f.ctx, ada.ID, ada.ID))
	logs := f.store.ActivitiesFor(domain.LogUser)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].CauserID)
}

func TestListUsersIncludesRoles(t *testing.T) {
	f := newFixture(t)
	_, err := f.roles.CreateRole(f.ctx, "agent", nil)
	require.NoError(t, err)
	_, err = f.users.CreateUser(f.ctx, "", UserCreateInput{Name: "Ada", Email: "ada@example.com", Password: "s3cretpass", Roles: []string{"agent"}})
	require.NoError(t, err)
	f.user(t, "Bob", "bob@example.com")

	page, err := f.users.ListUsers(f.ctx, domain.ListParams{SortBy: "name", SortOrder: domain.SortAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []string{"agent"}, page.Items[0].Roles)
	assert.Equal(t, []string{}, page.Items[1].Roles)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	session, err := f.auth.Register(f.ctx, "Ada", "ada@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	claims, err := f.auth.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	_, err = f.auth.Login(f.ctx, "ADA@example.com", "s3cretpass")
	require.NoError(t, err)

	_, err = f.auth.Login(f.ctx, "ada@example.com", "wrong-password")
	de := requireCode(t, err, apperrors.CodeAuthenticationRequired)
	assert.Equal(t, "invalid credentials", de.Message)

	_, err = f.auth.Login(f.ctx, "nobody@example.com", "s3cretpass")
	requireCode(t, err, apperrors.CodeAuthenticationRequired)

	_, err = f.auth.Register(f.ctx, "Ada", "ada@example.com", "s3cretpass")
	requireCode(t, err, apperrors.CodeValidation)

	user, grants, err := f.auth.Me(f.ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Empty(t, grants.Permissions)
}
