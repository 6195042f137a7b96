package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// PermissionService manages permission tokens.
type PermissionService struct {
	perms  repository.PermissionRepository
	grants GrantsInvalidator
}

// NewPermissionService constructs the service.
func NewPermissionService(perms repository.PermissionRepository, grants GrantsInvalidator) *PermissionService {
	if grants == nil {
		grants = noopInvalidator{}
	}
	return &PermissionService{perms: perms, grants: grants}
}

// ListPermissions returns a page of permissions.
func (s *PermissionService) ListPermissions(ctx context.Context, params domain.ListParams) (domain.Page[domain.Permission], error) {
	params, err := listParams(params, domain.PermissionSortFields, "created_at", domain.SortDesc)
	if err != nil {
		return domain.Page[domain.Permission]{}, err
	}
	page, err := s.perms.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Permission]{}, apperrors.NewInternalError(err)
	}
	return page, nil
}

// GetPermission loads one permission.
func (s *PermissionService) GetPermission(ctx context.Context, id string) (*domain.Permission, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("permission")
	}
	perm, err := s.perms.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "permission")
	}
	return perm, nil
}

// CreatePermission adds a token.
func (s *PermissionService) CreatePermission(ctx context.Context, name string) (*domain.Permission, error) {
	name = strings.TrimSpace(name)
	if err := s.checkName(ctx, name, ""); err != nil {
		return nil, err
	}
	perm := &domain.Permission{Name: name}
	if err := s.perms.Create(ctx, perm); err != nil {
		return nil, apperrors.ToDomainError(permissionConflict(err))
	}
	s.grants.Invalidate(ctx)
	return perm, nil
}

// UpdatePermission renames a token.
func (s *PermissionService) UpdatePermission(ctx context.Context, id, name string) (*domain.Permission, error) {
	current, err := s.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == current.Name {
		return current, nil
	}
	if err := s.checkName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.perms.Rename(ctx, id, name); err != nil {
		return nil, apperrors.MapError(permissionConflict(err), "permission")
	}
	s.grants.Invalidate(ctx)
	return s.GetPermission(ctx, id)
}

// DeletePermission removes a token from every role holding it.
func (s *PermissionService) DeletePermission(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("permission")
	}
	if err := s.perms.Delete(ctx, id); err != nil {
		return apperrors.MapError(err, "permission")
	}
	s.grants.Invalidate(ctx)
	return nil
}

func (s *PermissionService) checkName(ctx context.Context, name, exceptID string) error {
	if name == "" {
		return apperrors.NewFieldError("name", "The name field is required.")
	}
	taken, err := s.perms.NameTaken(ctx, name, exceptID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if taken {
		return apperrors.NewFieldError("name", "The name has already been taken.")
	}
	return nil
}

func permissionConflict(err error) error {
	if apperrors.IsUniqueViolation(err, repository.PermissionNameConstraint) {
		return apperrors.NewConflict("The name has already been taken.")
	}
	return err
}
