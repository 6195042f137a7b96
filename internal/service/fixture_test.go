package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/repotest"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type sequenceCodes struct {
	codes []string
	i     int
}

func (s *sequenceCodes) Next() (string, error) {
	code := s.codes[min(s.i, len(s.codes)-1)]
	s.i++
	return code, nil
}

type fixture struct {
	ctx        context.Context
	store      *repotest.Store
	repos      repotest.Repositories
	activity   *ActivityService
	tickets    *TicketService
	replies    *TicketReplyService
	users      *UserService
	roles      *RoleService
	perms      *PermissionService
	categories *CategoryService
	auth       *AuthService
	invalidate *countingInvalidator
	published  []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	repos := store.Repositories()
	f := &fixture{
		ctx:        context.Background(),
		store:      store,
		repos:      repos,
		invalidate: &countingInvalidator{},
	}

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventTicketCreated, events.EventTicketUpdated, events.EventTicketDeleted, events.EventTicketReplyCreated,
	} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	tx := repotest.TxRunner{}
	f.activity = NewActivityService(repos.Activities)
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Tx:         tx,
		Auditor:    f.activity,
		Dispatcher: dispatcher,
	})
	f.replies = NewTicketReplyService(TicketReplyDependencies{
		ReplyRepo:  repos.Replies,
		TicketRepo: repos.Tickets,
		UserRepo:   repos.Users,
		Tx:         tx,
		Auditor:    f.activity,
		Dispatcher: dispatcher,
	})
	f.users = NewUserService(UserDependencies{
		UserRepo:   repos.Users,
		RoleRepo:   repos.Roles,
		Tx:         tx,
		Auditor:    f.activity,
		Grants:     f.invalidate,
		BcryptCost: bcrypt.MinCost,
	})
	f.roles = NewRoleService(RoleDependencies{
		RoleRepo:       repos.Roles,
		PermissionRepo: repos.Permissions,
		Tx:             tx,
		Grants:         f.invalidate,
	})
	f.perms = NewPermissionService(repos.Permissions, f.invalidate)
	f.categories = NewCategoryService(CategoryDependencies{
		CategoryRepo: repos.Categories,
		Tx:           tx,
		Auditor:      f.activity,
	})
	f.auth = NewAuthService(AuthDependencies{
		UserRepo:     repos.Users,
		Grants:       repos.Roles,
		UserService:  f.users,
		TokenManager: auth.NewTokenManager("test-secret", "helpdesk", 5),
	})
	return f
}

func (f *fixture) user(t *testing.T, name, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, f.repos.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) ticket(t *testing.T, actor *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, actor.ID, TicketCreateInput{Title: title})
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, code, de.Code, "unexpected error: %v", err)
	return de
}
