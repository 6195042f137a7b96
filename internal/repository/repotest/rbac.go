package repotest

import (
	"context"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type roleRepo struct{ s *Store }

func (r *roleRepo) Create(_ context.Context, role *domain.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return uniqueViolation(repository.RoleNameConstraint)
		}
	}
	role.ID = newID()
	role.CreatedAt = s.tick()
	role.UpdatedAt = role.CreatedAt
	stored := *role
	stored.Permissions = nil
	s.roles[role.ID] = stored
	return nil
}

func (r *roleRepo) Rename(_ context.Context, id, name string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	role.Name = name
	role.UpdatedAt = s.tick()
	s.roles[id] = role
	return nil
}

func (r *roleRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return pgx.ErrNoRows
	}
	if s.assignmentsLocked(id) > 0 {
		return foreignKeyViolation(repository.UserRolesRoleConstraint)
	}
	delete(s.roles, id)
	delete(s.rolePerms, id)
	return nil
}

func (r *roleRepo) GetByID(_ context.Context, id string) (*domain.Role, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	role.Permissions = s.permNamesLocked(id)
	role.UsersCount = s.assignmentsLocked(id)
	return &role, nil
}

func (r *roleRepo) LockByID(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepo) NameTaken(_ context.Context, name, exceptID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range s.roles {
		if role.Name == name && role.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *roleRepo) IDsByNames(_ context.Context, names []string) (map[string]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, role := range s.roles {
		if slices.Contains(names, role.Name) {
			out[role.Name] = role.ID
		}
	}
	return out, nil
}

func (r *roleRepo) CountAssignments(_ context.Context, id string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignmentsLocked(id), nil
}

func (r *roleRepo) SyncPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolePerms[roleID] = slices.Compact(slices.Sorted(slices.Values(permissionIDs)))
	return nil
}

func (r *roleRepo) List(_ context.Context, p domain.ListParams) (domain.Page[domain.Role], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.Role{}
	for _, role := range s.roles {
		if p.Search == "" || contains(role.Name, p.Search) {
			role.UsersCount = s.assignmentsLocked(role.ID)
			items = append(items, role)
		}
	}
	sortBy(items, p, "created_at", func(role domain.Role, field string) string {
		switch field {
		case "name":
			return role.Name
		case "updated_at":
			return stamp(role.UpdatedAt)
		default:
			return stamp(role.CreatedAt)
		}
	})
	return page(items, p), nil
}

func (r *roleRepo) GrantsForUser(_ context.Context, userID string) (domain.Grants, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	grants := domain.Grants{Roles: s.roleNamesLocked(userID), Permissions: []string{}}
	for _, rid := range s.userRoles[userID] {
		grants.Permissions = append(grants.Permissions, s.permNamesLocked(rid)...)
	}
	slices.Sort(grants.Permissions)
	grants.Permissions = slices.Compact(grants.Permissions)
	return grants, nil
}

func (s *Store) assignmentsLocked(roleID string) int {
	n := 0
	for _, rids := range s.userRoles {
		if slices.Contains(rids, roleID) {
			n++
		}
	}
	return n
}

func (s *Store) permNamesLocked(roleID string) []string {
	names := []string{}
	for _, pid := range s.rolePerms[roleID] {
		if perm, ok := s.perms[pid]; ok {
			names = append(names, perm.Name)
		}
	}
	slices.Sort(names)
	return names
}

type permissionRepo struct{ s *Store }

func (r *permissionRepo) Create(_ context.Context, perm *domain.Permission) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.perms {
		if existing.Name == perm.Name {
			return uniqueViolation(repository.PermissionNameConstraint)
		}
	}
	perm.ID = newID()
	perm.CreatedAt = s.tick()
	perm.UpdatedAt = perm.CreatedAt
	s.perms[perm.ID] = *perm
	return nil
}

func (r *permissionRepo) Rename(_ context.Context, id, name string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	perm, ok := s.perms[id]
	if !ok {
		return pgx.ErrNoRows
	}
	perm.Name = name
	perm.UpdatedAt = s.tick()
	s.perms[id] = perm
	return nil
}

func (r *permissionRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.perms, id)
	for rid, pids := range s.rolePerms {
		s.rolePerms[rid] = slices.DeleteFunc(pids, func(p string) bool { return p == id })
	}
	return nil
}

func (r *permissionRepo) GetByID(_ context.Context, id string) (*domain.Permission, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	perm, ok := s.perms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &perm, nil
}

func (r *permissionRepo) NameTaken(_ context.Context, name, exceptID string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, perm := range s.perms {
		if perm.Name == name && perm.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *permissionRepo) IDsByNames(_ context.Context, names []string) (map[string]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, perm := range s.perms {
		if slices.Contains(names, perm.Name) {
			out[perm.Name] = perm.ID
		}
	}
	return out, nil
}

func (r *permissionRepo) List(_ context.Context, p domain.ListParams) (domain.Page[domain.Permission], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.Permission{}
	for _, perm := range s.perms {
		if p.Search == "" || contains(perm.Name, p.Search) {
			items = append(items, perm)
		}
	}
	sortBy(items, p, "created_at", func(perm domain.Permission, field string) string {
		switch field {
		case "name":
			return perm.Name
		case "updated_at":
			return stamp(perm.UpdatedAt)
		default:
			return stamp(perm.CreatedAt)
		}
	})
	return page(items, p), nil
}
