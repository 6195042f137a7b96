package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/repotest"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func seedPermissions(t *testing.T, f *fixture, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := f.perms.CreatePermission(f.ctx, name)
		require.NoError(t, err)
	}
}

func TestCreateRoleValidatesNamesAndPermissions(t *testing.T) {
	f := newFixture(t)
	seedPermissions(t, f, "tickets-access", "tickets-create")

	role, err := f.roles.CreateRole(f.ctx, "agent", []string{"tickets-create", "tickets-access", "tickets-access"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tickets-access", "tickets-create"}, role.Permissions)

	_, err = f.roles.CreateRole(f.ctx, "agent", nil)
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Equal(t, []string{"The name has already been taken."}, de.Details["name"])

	_, err = f.roles.CreateRole(f.ctx, "auditor", []string{"tickets-data"})
	de = requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "permissions")
}

func TestUpdateRoleSyncsPermissions(t *testing.T) {
	f := newFixture(t)
	seedPermissions(t, f, "tickets-access", "tickets-delete")
	role, err := f.roles.CreateRole(f.ctx, "agent", []string{"tickets-access"})
	require.NoError(t, err)
	before := f.invalidate.calls

	updated, err := f.roles.UpdateRole(f.ctx, role.ID, RoleUpdateInput{
		Name:        util.Some("senior-agent"),
		Permissions: util.Some([]string{"tickets-delete"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "senior-agent", updated.Name)
	assert.Equal(t, []string{"tickets-delete"}, updated.Permissions)
	assert.Greater(t, f.invalidate.calls, before)

	kept, err := f.roles.UpdateRole(f.ctx, role.ID, RoleUpdateInput{Name: util.Some("senior-agent")})
	require.NoError(t, err)
	assert.Equal(t, []string{"tickets-delete"}, kept.Permissions)
}

func TestDeleteRoleRefusesWhileAssigned(t *testing.T) {
	f := newFixture(t)
	role, err := f.roles.CreateRole(f.ctx, "agent", nil)
	require.NoError(t, err)
	user := f.user(t, "Ada", "ada@example.com")
	require.NoError(t, f.repos.Users.SyncRoles(f.ctx, user.ID, []string{role.ID}))

	err = f.roles.DeleteRole(f.ctx, role.ID)
	de := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "role is assigned to 1 user(s)", de.Message)

	_, err = f.roles.GetRole(f.ctx, role.ID)
	require.NoError(t, err)

	require.NoError(t, f.repos.Users.SyncRoles(f.ctx, user.ID, nil))
	require.NoError(t, f.roles.DeleteRole(f.ctx, role.ID))
	_, err = f.roles.GetRole(f.ctx, role.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	requireCode(t, f.roles.DeleteRole(f.ctx, role.ID), apperrors.CodeNotFound)
}

func TestPermissionCRUD(t *testing.T) {
	f := newFixture(t)
	perm, err := f.perms.CreatePermission(f.ctx, " reports-access ")
	require.NoError(t, err)
	assert.Equal(t, "reports-access", perm.Name)

	_, err = f.perms.CreatePermission(f.ctx, "reports-access")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = f.perms.CreatePermission(f.ctx, "")
	requireCode(t, err, apperrors.CodeValidation)

	renamed, err := f.perms.UpdatePermission(f.ctx, perm.ID, "reports-view")
	require.NoError(t, err)
	assert.Equal(t, "reports-view", renamed.Name)

	page, err := f.perms.ListPermissions(f.ctx, domain.ListParams{Search: "reports"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	require.NoError(t, f.perms.DeletePermission(f.ctx, perm.ID))
	requireCode(t, f.perms.DeletePermission(f.ctx, perm.ID), apperrors.CodeNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seeder := NewSeedService(SeedDependencies{
		UserRepo:       f.repos.Users,
		RoleRepo:       f.repos.Roles,
		PermissionRepo: f.repos.Permissions,
		Tx:             repotest.TxRunner{},
		BcryptCost:     4,
	})
	admin := config.SeedConfig{AdminName: "Super Admin", AdminEmail: "SuperAdmin@example.com", AdminPassword: "password"}

	require.NoError(t, seeder.Seed(f.ctx, admin))
	require.NoError(t, seeder.Seed(f.ctx, admin))

	perms, err := f.perms.ListPermissions(f.ctx, domain.ListParams{PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, len(auth.All()), perms.Total)

	roles, err := f.roles.ListRoles(f.ctx, domain.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 4, roles.Total)

	session, err := f.auth.Login(f.ctx, "superadmin@example.com", "password")
	require.NoError(t, err)
	_, grants, err := f.auth.Me(f.ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{SuperAdminRole}, grants.Roles)
	assert.Len(t, grants.Permissions, len(auth.All()))
}
