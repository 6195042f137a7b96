package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepository_CountAssignments(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_roles WHERE role_id=\$1`).
		WithArgs("role-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountAssignments(context.Background(), "role-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_LockByIDMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`SELECT id FROM roles WHERE id=\$1 FOR UPDATE`).
		WithArgs("role-404").
		WillReturnError(pgx.ErrNoRows)

	err := repo.LockByID(context.Background(), "role-404")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_SyncPermissions(t *testing.T) {
	tests := []struct {
		name  string
		perms []string
		setup func(mock pgxmock.PgxPoolIface)
	}{
		{
			name:  "replaces the set",
			perms: []string{"p-1", "p-2"},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM role_permissions WHERE role_id=\$1`).
					WithArgs("role-1").
					WillReturnResult(pgxmock.NewResult("DELETE", 4))
				mock.ExpectExec(`INSERT INTO role_permissions`).
					WithArgs("role-1", []string{"p-1", "p-2"}).
					WillReturnResult(pgxmock.NewResult("INSERT", 2))
			},
		},
		{
			name:  "empty set only clears",
			perms: nil,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM role_permissions WHERE role_id=\$1`).
					WithArgs("role-1").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewRoleRepository(mock)
			tt.setup(mock)

			require.NoError(t, repo.SyncPermissions(context.Background(), "role-1", tt.perms))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRoleRepository_GrantsForUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewRoleRepository(mock)

	mock.ExpectQuery(`SELECT r.name FROM roles r`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("support"))
	mock.ExpectQuery(`SELECT DISTINCT p.name FROM permissions p`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("tickets-access").AddRow("tickets-create"))

	grants, err := repo.GrantsForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"support"}, grants.Roles)
	assert.Equal(t, []string{"tickets-access", "tickets-create"}, grants.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
