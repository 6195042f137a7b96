package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Session is an issued bearer token for a user.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users    repository.UserRepository
	grants   auth.GrantSource
	accounts *UserService
	tokenMgr *auth.TokenManager
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	Grants       auth.GrantSource
	UserService  *UserService
	TokenManager *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		grants:   deps.Grants,
		accounts: deps.UserService,
		tokenMgr: deps.TokenManager,
	}
}

// Register creates an account with no roles and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := s.accounts.createUser(ctx, nil, UserCreateInput{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	user.Roles = []string{}
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	grants, err := s.grants.GrantsForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.Roles = nonNil(grants.Roles)
	return s.issue(user)
}

// Me returns the caller together with its roles and permission tokens.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, domain.Grants, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Grants{}, apperrors.MapError(err, "user")
	}
	grants, err := s.grants.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, domain.Grants{}, apperrors.NewInternalError(err)
	}
	grants.Roles, grants.Permissions = nonNil(grants.Roles), nonNil(grants.Permissions)
	user.Roles = grants.Roles
	return user, grants, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}
