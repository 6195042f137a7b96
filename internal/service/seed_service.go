package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SuperAdminRole is granted every permission in the catalogue.
const SuperAdminRole = "super-admin"

var seededRoles = map[string][]auth.Permission{
	"permissions-access": {auth.PermissionsAccess},
	"roles-access":       {auth.RolesAccess},
	"users-access":       {auth.UsersAccess},
}

// SeedService installs the permission catalogue, baseline roles and the administrator.
type SeedService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	perms      repository.PermissionRepository
	tx         TxRunner
	grants     GrantsInvalidator
	bcryptCost int
	logger     *zap.Logger
}

// SeedDependencies bundles collaborators for seeding.
type SeedDependencies struct {
	UserRepo       repository.UserRepository
	RoleRepo       repository.RoleRepository
	PermissionRepo repository.PermissionRepository
	Tx             TxRunner
	Grants         GrantsInvalidator
	BcryptCost     int
	Logger         *zap.Logger
}

// NewSeedService constructs the service.
func NewSeedService(deps SeedDependencies) *SeedService {
	grants := deps.Grants
	if grants == nil {
		grants = noopInvalidator{}
	}
	return &SeedService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		perms:      deps.PermissionRepo,
		tx:         deps.Tx,
		grants:     grants,
		bcryptCost: deps.BcryptCost,
		logger:     orNop(deps.Logger),
	}
}

// Seed is idempotent: existing rows are reused and role grants are re-synced.
func (s *SeedService) Seed(ctx context.Context, admin config.SeedConfig) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		permIDs := make(map[auth.Permission]string, len(auth.All()))
		for _, p := range auth.All() {
			id, err := s.ensurePermission(ctx, string(p))
			if err != nil {
				return err
			}
			permIDs[p] = id
		}

		all := make([]string, 0, len(permIDs))
		for _, p := range auth.All() {
			all = append(all, permIDs[p])
		}
		superID, err := s.ensureRole(ctx, SuperAdminRole, all)
		if err != nil {
			return err
		}
		for name, grants := range seededRoles {
			ids := make([]string, len(grants))
			for i, p := range grants {
				ids[i] = permIDs[p]
			}
			if _, err := s.ensureRole(ctx, name, ids); err != nil {
				return err
			}
		}

		return s.ensureAdmin(ctx, admin, superID)
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.grants.Invalidate(ctx)
	return nil
}

func (s *SeedService) ensurePermission(ctx context.Context, name string) (string, error) {
	ids, err := s.perms.IDsByNames(ctx, []string{name})
	if err != nil {
		return "", err
	}
	if id, ok := ids[name]; ok {
		return id, nil
	}
	perm := &domain.Permission{Name: name}
	if err := s.perms.Create(ctx, perm); err != nil {
		return "", fmt.Errorf("create permission %s: %w", name, err)
	}
	return perm.ID, nil
}

func (s *SeedService) ensureRole(ctx context.Context, name string, permIDs []string) (string, error) {
	ids, err := s.roles.IDsByNames(ctx, []string{name})
	if err != nil {
		return "", err
	}
	id, ok := ids[name]
	if !ok {
		role := &domain.Role{Name: name}
		if err := s.roles.Create(ctx, role); err != nil {
			return "", fmt.Errorf("create role %s: %w", name, err)
		}
		id = role.ID
		s.logger.Info("seeded role", zap.String("role", name))
	}
	return id, s.roles.SyncPermissions(ctx, id, permIDs)
}

func (s *SeedService) ensureAdmin(ctx context.Context, admin config.SeedConfig, roleID string) error {
	email := strings.ToLower(strings.TrimSpace(admin.AdminEmail))
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case apperrors.IsNotFound(err):
		hash, err := auth.HashPassword(admin.AdminPassword, s.bcryptCost)
		if err != nil {
			return err
		}
		user = &domain.User{Name: admin.AdminName, Email: email, PasswordHash: hash}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		s.logger.Info("seeded administrator", zap.String("email", email))
	default:
		return err
	}

	roles, err := s.users.RoleNames(ctx, []string{user.ID})
	if err != nil {
		return err
	}
	current, err := s.roles.IDsByNames(ctx, roles[user.ID])
	if err != nil {
		return err
	}
	roleIDs := []string{roleID}
	for _, id := range current {
		if id != roleID {
			roleIDs = append(roleIDs, id)
		}
	}
	return s.users.SyncRoles(ctx, user.ID, roleIDs)
}
