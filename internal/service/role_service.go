package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RoleService manages roles and the permissions they grant.
type RoleService struct {
	roles  repository.RoleRepository
	perms  repository.PermissionRepository
	tx     TxRunner
	grants GrantsInvalidator
	logger *zap.Logger
}

// RoleDependencies bundles collaborators for the role service.
type RoleDependencies struct {
	RoleRepo       repository.RoleRepository
	PermissionRepo repository.PermissionRepository
	Tx             TxRunner
	Grants         GrantsInvalidator
	Logger         *zap.Logger
}

// RoleUpdateInput carries the fields present in a partial update.
type RoleUpdateInput struct {
	Name        util.Optional[string]
	Permissions util.Optional[[]string]
}

// NewRoleService constructs the service.
func NewRoleService(deps RoleDependencies) *RoleService {
	grants := deps.Grants
	if grants == nil {
		grants = noopInvalidator{}
	}
	return &RoleService{
		roles:  deps.RoleRepo,
		perms:  deps.PermissionRepo,
		tx:     deps.Tx,
		grants: grants,
		logger: orNop(deps.Logger),
	}
}

// ListRoles returns a page of roles with assignment counts.
func (s *RoleService) ListRoles(ctx context.Context, params domain.ListParams) (domain.Page[domain.Role], error) {
	params, err := listParams(params, domain.RoleSortFields, "created_at", domain.SortDesc)
	if err != nil {
		return domain.Page[domain.Role]{}, err
	}
	page, err := s.roles.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Role]{}, apperrors.NewInternalError(err)
	}
	return page, nil
}

// GetRole loads a role with its permission names.
func (s *RoleService) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("role")
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "role")
	}
	return role, nil
}

// CreateRole creates a role granting the named permissions.
func (s *RoleService) CreateRole(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	details := map[string]any{}
	if err := s.checkName(ctx, details, name, ""); err != nil {
		return nil, err
	}
	permIDs, err := s.resolvePermissions(ctx, details, permissions)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	role := &domain.Role{Name: name}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.roles.Create(ctx, role); err != nil {
			return roleConflict(err)
		}
		return s.roles.SyncPermissions(ctx, role.ID, permIDs)
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	s.grants.Invalidate(ctx)
	return s.GetRole(ctx, role.ID)
}

// UpdateRole renames a role and, when given, replaces its permission set.
func (s *RoleService) UpdateRole(ctx context.Context, id string, input RoleUpdateInput) (*domain.Role, error) {
	current, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	details := map[string]any{}
	name := current.Name
	if input.Name.Set {
		name = strings.TrimSpace(input.Name.Value)
		if name != current.Name {
			if err := s.checkName(ctx, details, name, id); err != nil {
				return nil, err
			}
		}
	}
	var permIDs []string
	if input.Permissions.Set {
		if permIDs, err = s.resolvePermissions(ctx, details, input.Permissions.Value); err != nil {
			return nil, err
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if name != current.Name {
			if err := s.roles.Rename(ctx, id, name); err != nil {
				return apperrors.MapError(roleConflict(err), "role")
			}
		}
		if input.Permissions.Set {
			return s.roles.SyncPermissions(ctx, id, permIDs)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	s.grants.Invalidate(ctx)
	return s.GetRole(ctx, id)
}

// DeleteRole removes a role that no user holds.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("role")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.roles.LockByID(ctx, id); err != nil {
			return apperrors.MapError(err, "role")
		}
		assigned, err := s.roles.CountAssignments(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return apperrors.NewConflict(fmt.Sprintf("role is assigned to %d user(s)", assigned))
		}
		if err := s.roles.Delete(ctx, id); err != nil {
			if apperrors.IsForeignKeyViolation(err, repository.UserRolesRoleConstraint) {
				return apperrors.NewConflict("role is assigned to users")
			}
			return apperrors.MapError(err, "role")
		}
		return nil
	})
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	s.grants.Invalidate(ctx)
	return nil
}

func (s *RoleService) checkName(ctx context.Context, details map[string]any, name, exceptID string) error {
	if name == "" {
		details["name"] = []string{"The name field is required."}
		return nil
	}
	taken, err := s.roles.NameTaken(ctx, name, exceptID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if taken {
		details["name"] = []string{"The name has already been taken."}
	}
	return nil
}

func (s *RoleService) resolvePermissions(ctx context.Context, details map[string]any, names []string) ([]string, error) {
	names = slices.Compact(slices.Sorted(slices.Values(names)))
	if len(names) == 0 {
		return nil, nil
	}
	ids, err := s.perms.IDsByNames(ctx, names)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	out := make([]string, 0, len(names))
	var unknown []string
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		} else {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		details["permissions"] = []string{"The selected permissions are invalid: " + strings.Join(unknown, ", ") + "."}
	}
	return out, nil
}

func roleConflict(err error) error {
	if apperrors.IsUniqueViolation(err, repository.RoleNameConstraint) {
		return apperrors.NewConflict("The name has already been taken.")
	}
	return err
}
