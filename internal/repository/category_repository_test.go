package repository

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_CountChildren(t *testing.T) {
	tests := []struct {
		name     string
		children int
	}{
		{"leaf", 0},
		{"parent", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewCategoryRepository(mock)
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories WHERE parent_id=\$1`).
				WithArgs("cat-1").
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(tt.children))

			n, err := repo.CountChildren(context.Background(), "cat-1")
			require.NoError(t, err)
			assert.Equal(t, tt.children, n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_AncestorIDs(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(`WITH RECURSIVE ancestors.* SELECT id::text FROM ancestors WHERE depth > 0 ORDER BY depth`).
		WithArgs("cat-leaf").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("cat-mid").AddRow("cat-root"))

	ids, err := repo.AncestorIDs(context.Background(), "cat-leaf")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-mid", "cat-root"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_AncestorIDsOfRoot(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery(`WITH RECURSIVE ancestors`).
		WithArgs("cat-root").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	ids, err := repo.AncestorIDs(context.Background(), "cat-root")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_SlugTaken(t *testing.T) {
	tests := []struct {
		name     string
		exceptID string
		query    string
		args     []any
	}{
		{"on create", "", `SELECT EXISTS\(SELECT 1 FROM categories WHERE slug=\$1\)`, []any{"printers"}},
		{"on update", "cat-1", `SELECT EXISTS\(SELECT 1 FROM categories WHERE slug=\$1 AND id<>\$2\)`, []any{"printers", "cat-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewCategoryRepository(mock)
			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

			taken, err := repo.SlugTaken(context.Background(), "printers", tt.exceptID)
			require.NoError(t, err)
			assert.True(t, taken)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
