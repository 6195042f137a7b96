package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hardware Issues":      "hardware-issues",
		"  Café   Déjà Vu!  ":  "cafe-deja-vu",
		"Billing & Payments":   "billing-payments",
		"VPN/Remote-Access 2":  "vpn-remote-access-2",
		"!!!":                  "",
		"already-a-slug":       "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

type patch struct {
	Title    Optional[string]  `json:"title"`
	Assignee Optional[*string] `json:"assigned_to_user_id"`
}

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Printer jam"}`), &p))
	assert.True(t, p.Title.Set)
	assert.False(t, p.Title.Null)
	assert.Equal(t, "Printer jam", p.Title.Value)
	assert.False(t, p.Assignee.Set)

	p = patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"assigned_to_user_id":null}`), &p))
	assert.False(t, p.Title.Set)
	assert.True(t, p.Assignee.Set)
	assert.True(t, p.Assignee.Null)
	assert.Nil(t, p.Assignee.Ptr())
}

func TestOptionalHelpers(t *testing.T) {
	some := Some("x")
	require.NotNil(t, some.Ptr())
	assert.Equal(t, "x", *some.Ptr())

	null := Null[string]()
	assert.True(t, null.Set)
	assert.Nil(t, null.Ptr())

	var unset Optional[int]
	assert.Nil(t, unset.Ptr())
}

type signup struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func TestValidateStruct(t *testing.T) {
	ok := signup{Name: "Ana", Email: "ana@example.com", Password: "secret123", PasswordConfirmation: "secret123"}
	assert.NoError(t, ValidateStruct(ok))

	bad := signup{Email: "nope", Password: "short", PasswordConfirmation: "other"}
	err := ValidateStruct(bad)
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
	assert.Equal(t, []string{"The password field confirmation does not match."}, de.Details["password_confirmation"])
}
