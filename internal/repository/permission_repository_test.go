package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionRepository_IDsByNames(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPermissionRepository(mock)

	mock.ExpectQuery(`SELECT name, id FROM permissions WHERE name = ANY\(\$1\)`).
		WithArgs([]string{"tickets-access", "tickets-delete"}).
		WillReturnRows(pgxmock.NewRows([]string{"name", "id"}).AddRow("tickets-access", "perm-1"))

	ids, err := repo.IDsByNames(context.Background(), []string{"tickets-access", "tickets-delete"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tickets-access": "perm-1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepository_IDsByNamesEmpty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPermissionRepository(mock)

	ids, err := repo.IDsByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepository_Rename(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"renamed", 1, nil},
		{"missing", 0, pgx.ErrNoRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewPermissionRepository(mock)
			mock.ExpectExec(`UPDATE permissions SET name=\$1, updated_at=NOW\(\) WHERE id=\$2`).
				WithArgs("tickets-export", "perm-1").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := repo.Rename(context.Background(), "perm-1", "tickets-export")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
