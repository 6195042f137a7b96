package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService administers accounts and their role assignments.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tx         TxRunner
	audit      Auditor
	grants     GrantsInvalidator
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	Tx         TxRunner
	Auditor    Auditor
	Grants     GrantsInvalidator
	BcryptCost int
	Logger     *zap.Logger
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// UserUpdateInput carries the fields present in a partial update.
type UserUpdateInput struct {
	Name     util.Optional[string]
	Email    util.Optional[string]
	Password util.Optional[string]
	Roles    util.Optional[[]string]
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	grants := deps.Grants
	if grants == nil {
		grants = noopInvalidator{}
	}
	return &UserService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		tx:         deps.Tx,
		audit:      deps.Auditor,
		grants:     grants,
		bcryptCost: deps.BcryptCost,
		logger:     orNop(deps.Logger),
	}
}

// ListUsers returns a page of users with their role names.
func (s *UserService) ListUsers(ctx context.Context, params domain.ListParams) (domain.Page[domain.User], error) {
	params, err := listParams(params, domain.UserSortFields, "created_at", domain.SortDesc)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	page, err := s.users.List(ctx, params)
	if err != nil {
		return domain.Page[domain.User]{}, apperrors.NewInternalError(err)
	}
	ids := make([]string, len(page.Items))
	for i, u := range page.Items {
		ids[i] = u.ID
	}
	roles, err := s.users.RoleNames(ctx, ids)
	if err != nil {
		return domain.Page[domain.User]{}, apperrors.NewInternalError(err)
	}
	for i := range page.Items {
		page.Items[i].Roles = nonNil(roles[page.Items[i].ID])
	}
	return page, nil
}

// GetUser loads a user with its role names.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("user")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "user")
	}
	roles, err := s.users.RoleNames(ctx, []string{id})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.Roles = nonNil(roles[id])
	return user, nil
}

// CreateUser registers an account administratively.
func (s *UserService) CreateUser(ctx context.Context, actorID string, input UserCreateInput) (*domain.User, error) {
	user, err := s.createUser(ctx, causer(actorID), input)
	if err != nil {
		return nil, err
	}
	if len(input.Roles) > 0 {
		s.grants.Invalidate(ctx)
	}
	return s.GetUser(ctx, user.ID)
}

func (s *UserService) createUser(ctx context.Context, causerID *string, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	details := map[string]any{}
	if name == "" {
		details["name"] = []string{"The name field is required."}
	}
	if email == "" {
		details["email"] = []string{"The email field is required."}
	} else if taken, err := s.users.EmailTaken(ctx, email, ""); err != nil {
		return nil, apperrors.NewInternalError(err)
	} else if taken {
		details["email"] = []string{"The email has already been taken."}
	}
	roleIDs, err := s.resolveRoles(ctx, details, input.Roles)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return emailConflict(err)
		}
		if len(roleIDs) > 0 {
			if err := s.users.SyncRoles(ctx, user.ID, roleIDs); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogUser,
			Description: "Created user with email: " + user.Email,
			SubjectID:   user.ID,
			CauserID:    causerID,
			Event:       domain.ActivityCreated,
			Properties: map[string]any{
				"attributes": map[string]any{"name": user.Name, "email": user.Email},
			},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return user, nil
}

// UpdateUser applies a partial update. A role list, when present, replaces the current one.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id string, input UserUpdateInput) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("user")
	}
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "user")
	}

	details := map[string]any{}
	changes, attrs, old := map[string]any{}, map[string]any{}, map[string]any{}
	if input.Name.Set {
		name := strings.TrimSpace(input.Name.Value)
		if name == "" {
			details["name"] = []string{"The name field is required."}
		} else if name != current.Name {
			changes["name"], attrs["name"], old["name"] = name, name, current.Name
		}
	}
	if input.Email.Set {
		email := strings.ToLower(strings.TrimSpace(input.Email.Value))
		switch {
		case email == "":
			details["email"] = []string{"The email field is required."}
		case email != current.Email:
			taken, err := s.users.EmailTaken(ctx, email, id)
			if err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			if taken {
				details["email"] = []string{"The email has already been taken."}
			} else {
				changes["email"], attrs["email"], old["email"] = email, email, current.Email
			}
		}
	}
	if input.Password.Set && !input.Password.Null && input.Password.Value != "" {
		hash, err := auth.HashPassword(input.Password.Value, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		changes["password_hash"] = hash
	}
	var roleIDs []string
	if input.Roles.Set {
		if roleIDs, err = s.resolveRoles(ctx, details, input.Roles.Value); err != nil {
			return nil, err
		}
		held, err := s.users.RoleNames(ctx, []string{id})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		wanted := slices.Compact(slices.Sorted(slices.Values(input.Roles.Value)))
		previous := slices.Sorted(slices.Values(held[id]))
		if !slices.Equal(wanted, previous) {
			attrs["roles"], old["roles"] = append([]string{}, wanted...), append([]string{}, previous...)
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	email := current.Email
	if e, ok := attrs["email"].(string); ok {
		email = e
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, id, changes); err != nil {
			return apperrors.MapError(emailConflict(err), "user")
		}
		if input.Roles.Set {
			if err := s.users.SyncRoles(ctx, id, roleIDs); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogUser,
			Description: "Updated user with email: " + email,
			SubjectID:   id,
			CauserID:    causer(actorID),
			Event:       domain.ActivityUpdated,
			Properties:  map[string]any{"attributes": attrs, "old": old},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if input.Roles.Set {
		s.grants.Invalidate(ctx)
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes an account together with the tickets it opened.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("user")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Delete(ctx, id); err != nil {
			return apperrors.MapError(err, "user")
		}
		// The causer row is gone once users delete themselves.
		var causerID *string
		if actorID != id {
			causerID = causer(actorID)
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogUser,
			Description: "Deleted user with ID: " + id,
			SubjectID:   id,
			CauserID:    causerID,
			Event:       domain.ActivityDeleted,
			Properties:  map[string]any{"user_id": id},
		})
	})
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	s.grants.Invalidate(ctx)
	return nil
}

func (s *UserService) resolveRoles(ctx context.Context, details map[string]any, names []string) ([]string, error) {
	names = slices.Compact(slices.Sorted(slices.Values(names)))
	if len(names) == 0 {
		return nil, nil
	}
	ids, err := s.roles.IDsByNames(ctx, names)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			details["roles"] = []string{fmt.Sprintf("The selected role %q is invalid.", name)}
			return nil, nil
		}
		out = append(out, id)
	}
	return out, nil
}

func emailConflict(err error) error {
	if apperrors.IsUniqueViolation(err, repository.UserEmailConstraint) {
		return apperrors.NewConflict("The email has already been taken.")
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
