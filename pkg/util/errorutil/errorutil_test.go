package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewConflict("busy"), CodeConflict, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewNotFound("ticket")), CodeNotFound, http.StatusNotFound},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, CodeConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	got := ToDomainError(errors.New("password=secret"))
	assert.Equal(t, "internal server error", got.Message)
	assert.NotContains(t, got.Message, "secret")
}

func TestMapErrorNamesResource(t *testing.T) {
	err := MapError(fmt.Errorf("get: %w", pgx.ErrNoRows), "ticket")
	got := ToDomainError(err)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, "ticket not found", got.Message)
	assert.Nil(t, MapError(nil, "ticket"))
}

func TestForbiddenNamesPermission(t *testing.T) {
	got := ToDomainError(NewForbidden("tickets-delete"))
	assert.Equal(t, http.StatusForbidden, got.HTTPStatus)
	assert.Equal(t, "You don't have permission: tickets-delete", got.Message)
}

func TestPgErrorPredicates(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tickets_code_key"})
	assert.True(t, IsUniqueViolation(unique, ""))
	assert.True(t, IsUniqueViolation(unique, "tickets_code_key"))
	assert.False(t, IsUniqueViolation(unique, "users_email_key"))
	assert.False(t, IsForeignKeyViolation(unique, ""))

	fk := &pgconn.PgError{Code: "23503"}
	assert.True(t, IsForeignKeyViolation(fk, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewFieldError("title", "required"), CodeValidation))
	assert.False(t, HasCode(errors.New("x"), CodeValidation))
}
