// Package repotest provides in-memory repository implementations for tests.
// They mirror the database constraints the services rely on: unique keys,
// RESTRICT foreign keys and cascading deletes.
package repotest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store is the shared state behind every fake repository.
type Store struct {
	mu sync.Mutex

	clock time.Time

	users      map[string]domain.User
	userRoles  map[string][]string
	roles      map[string]domain.Role
	rolePerms  map[string][]string
	perms      map[string]domain.Permission
	categories map[string]domain.Category
	tickets    map[string]domain.Ticket
	replies    map[string]domain.TicketReply
	activities []domain.Activity

	// TicketCreateErrs are returned, in order, by the next ticket inserts.
	TicketCreateErrs []error
	// CodeChecks counts ticket code existence lookups.
	CodeChecks int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		clock:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		users:      map[string]domain.User{},
		userRoles:  map[string][]string{},
		roles:      map[string]domain.Role{},
		rolePerms:  map[string][]string{},
		perms:      map[string]domain.Permission{},
		categories: map[string]domain.Category{},
		tickets:    map[string]domain.Ticket{},
		replies:    map[string]domain.TicketReply{},
	}
}

// TxRunner runs callbacks inline.
type TxRunner struct{}

// RunInTx calls fn with ctx.
func (TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func newID() string {
	return uuid.NewString()
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint}
}

// Activities returns a copy of every recorded audit entry in insertion order.
func (s *Store) Activities() []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activities)
}

// ActivitiesFor returns entries of one log name in insertion order.
func (s *Store) ActivitiesFor(logName string) []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Activity
	for _, a := range s.activities {
		if a.LogName == logName {
			out = append(out, a)
		}
	}
	return out
}

// ReplyCount returns the number of replies stored for ticketID.
func (s *Store) ReplyCount(ticketID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.replies {
		if r.TicketID == ticketID {
			n++
		}
	}
	return n
}

// HasTicket reports whether a ticket row exists.
func (s *Store) HasTicket(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tickets[id]
	return ok
}

// Repositories bundles every fake over one store.
type Repositories struct {
	Users       repository.UserRepository
	Roles       repository.RoleRepository
	Permissions repository.PermissionRepository
	Categories  repository.CategoryRepository
	Tickets     repository.TicketRepository
	Replies     repository.TicketReplyRepository
	Activities  repository.ActivityRepository
}

// Repositories returns fakes sharing s.
func (s *Store) Repositories() Repositories {
	return Repositories{
		Users:       &userRepo{s},
		Roles:       &roleRepo{s},
		Permissions: &permissionRepo{s},
		Categories:  &categoryRepo{s},
		Tickets:     &ticketRepo{s},
		Replies:     &replyRepo{s},
		Activities:  &activityRepo{s},
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func page[T any](items []T, p domain.ListParams) domain.Page[T] {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 15
	}
	pageNo := p.Page
	if pageNo <= 0 {
		pageNo = 1
	}
	start := min((pageNo-1)*perPage, len(items))
	end := min(start+perPage, len(items))
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)
	return domain.Page[T]{Items: out, Total: len(items), Page: pageNo, PerPage: perPage}
}

// sortBy orders items by the string key of the requested field, then by creation time.
func sortBy[T any](items []T, p domain.ListParams, fallback string, key func(T, string) string) {
	field := p.SortBy
	if field == "" {
		field = fallback
	}
	desc := p.SortOrder != domain.SortAsc
	slices.SortStableFunc(items, func(a, b T) int {
		c := strings.Compare(key(a, field), key(b, field))
		if desc {
			return -c
		}
		return c
	})
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000")
}
