package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

type stubGrants struct {
	grants map[string]domain.Grants
	calls  int
	err    error
}

func (s *stubGrants) GrantsForUser(_ context.Context, userID string) (domain.Grants, error) {
	s.calls++
	if s.err != nil {
		return domain.Grants{}, s.err
	}
	return s.grants[userID], nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).SendString(de.Code + ": " + de.Message)
}

func newApp(mw *AuthMiddleware, perm Permission) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/guarded", mw.Handle, NewGate(nil).Require(perm), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString("hello " + p.User.Name)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	token, expires, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "helpdesk", claims.Issuer)
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenManager("secret", "helpdesk", 5)
	token, _, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", "helpdesk", 5).ParseToken(token)
	assert.Error(t, err)

	late := NewTokenManager("secret", "helpdesk", 5)
	late.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = late.ParseToken(token)
	assert.Error(t, err)

	_, err = issuer.ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestGateAllowsGrantedPermission(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	users := stubUsers{"u1": {ID: "u1", Name: "Ada"}}
	grants := &stubGrants{grants: map[string]domain.Grants{
		"u1": {Roles: []string{"agent"}, Permissions: []string{"tickets-access"}},
	}}
	app := newApp(NewAuthMiddleware(tm, users, grants), TicketsAccess)

	token, _, err := tm.GenerateToken("u1")
	require.NoError(t, err)

	status, body := doGet(t, app, token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hello Ada", body)
}

func TestGateRejectsMissingPermission(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	users := stubUsers{"u1": {ID: "u1", Name: "Ada"}}
	grants := &stubGrants{grants: map[string]domain.Grants{
		"u1": {Permissions: []string{"tickets-access"}},
	}}
	app := newApp(NewAuthMiddleware(tm, users, grants), TicketsDelete)

	token, _, err := tm.GenerateToken("u1")
	require.NoError(t, err)

	status, body := doGet(t, app, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, "You don't have permission: tickets-delete")
}

func TestAuthMiddlewareRejectsBadCredentials(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	grants := &stubGrants{}
	app := newApp(NewAuthMiddleware(tm, stubUsers{}, grants), TicketsAccess)

	status, body := doGet(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, apperrors.CodeAuthenticationRequired)

	status, _ = doGet(t, app, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	orphan, _, err := tm.GenerateToken("deleted-user")
	require.NoError(t, err)
	status, _ = doGet(t, app, orphan)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Zero(t, grants.calls)
}

func TestAuthMiddlewareSurfacesGrantFailures(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	users := stubUsers{"u1": {ID: "u1", Name: "Ada"}}
	app := newApp(NewAuthMiddleware(tm, users, &stubGrants{err: errors.New("db down")}), TicketsAccess)

	token, _, err := tm.GenerateToken("u1")
	require.NoError(t, err)
	status, body := doGet(t, app, token)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "db down")
}

func TestPrincipalHasPermission(t *testing.T) {
	p := NewPrincipal(&domain.User{ID: "u1"}, domain.Grants{Permissions: []string{"roles-access"}})
	assert.True(t, p.HasPermission(RolesAccess))
	assert.False(t, p.HasPermission(RolesDelete))

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasPermission(RolesAccess))
	assert.Empty(t, nilPrincipal.UserID())
}

func TestCatalogue(t *testing.T) {
	all := All()
	seen := map[Permission]bool{}
	for _, p := range all {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
		assert.True(t, Known(p))
	}
	assert.False(t, Known("tickets-data"))
	assert.Equal(t, []string{"tickets-create", "tickets-delete"}, Names(TicketsCreate, TicketsDelete))

	all[0] = "mutated"
	assert.Equal(t, DashboardAccess, All()[0])
}
