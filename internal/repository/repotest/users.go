package repotest

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == email {
			return uniqueViolation(repository.UserEmailConstraint)
		}
	}
	user.ID = newID()
	user.Email = email
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Roles = nil
	s.users[user.ID] = stored
	return nil
}

func (r *userRepo) Update(_ context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for k, v := range changes {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = strings.ToLower(v.(string))
		case "password_hash":
			u.PasswordHash = v.(string)
		}
	}
	u.UpdatedAt = s.tick()
	s.users[id] = u
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.users, id)
	delete(s.userRoles, id)
	for tid, t := range s.tickets {
		switch {
		case t.CreatedByUserID == id:
			s.deleteTicketLocked(tid)
		case t.AssignedToUserID != nil && *t.AssignedToUserID == id:
			t.AssignedToUserID = nil
			s.tickets[tid] = t
		}
	}
	for rid, reply := range s.replies {
		if reply.UserID == id {
			delete(s.replies, rid)
		}
	}
	for i, a := range s.activities {
		if a.CauserID != nil && *a.CauserID == id {
			s.activities[i].CauserID = nil
		}
	}
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) Exists(_ context.Context, id string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok, nil
}

func (r *userRepo) EmailTaken(_ context.Context, email, exceptID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) List(_ context.Context, p domain.ListParams) (domain.Page[domain.User], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.User{}
	for _, u := range s.users {
		if p.Search == "" || contains(u.Name, p.Search) || contains(u.Email, p.Search) {
			items = append(items, u)
		}
	}
	sortBy(items, p, "created_at", func(u domain.User, field string) string {
		switch field {
		case "name":
			return u.Name
		case "email":
			return u.Email
		case "updated_at":
			return stamp(u.UpdatedAt)
		default:
			return stamp(u.CreatedAt)
		}
	})
	return page(items, p), nil
}

func (r *userRepo) RoleNames(_ context.Context, userIDs []string) (map[string][]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(userIDs))
	for _, id := range userIDs {
		names := s.roleNamesLocked(id)
		if len(names) > 0 {
			out[id] = names
		}
	}
	return out, nil
}

func (r *userRepo) SyncRoles(_ context.Context, userID string, roleIDs []string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rid := range roleIDs {
		if _, ok := s.roles[rid]; !ok {
			return foreignKeyViolation(repository.UserRolesRoleConstraint)
		}
	}
	s.userRoles[userID] = slices.Compact(slices.Sorted(slices.Values(roleIDs)))
	return nil
}

func (s *Store) roleNamesLocked(userID string) []string {
	var names []string
	for _, rid := range s.userRoles[userID] {
		if role, ok := s.roles[rid]; ok {
			names = append(names, role.Name)
		}
	}
	slices.Sort(names)
	return names
}
