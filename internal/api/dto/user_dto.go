package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// RegisterRequest payload for self-registration.
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// MeResponse describes the authenticated user and what it may do.
type MeResponse struct {
	User        UserResponse `json:"user"`
	Roles       []string     `json:"roles"`
	Permissions []string     `json:"permissions"`
}

// CreateUserRequest payload for administrative account creation.
type CreateUserRequest struct {
	Name                 string   `json:"name" validate:"required,max=255"`
	Email                string   `json:"email" validate:"required,email,max=255"`
	Password             string   `json:"password" validate:"required,min=8"`
	PasswordConfirmation string   `json:"password_confirmation" validate:"required,eqfield=Password"`
	Roles                []string `json:"roles" validate:"omitempty,dive,required"`
}

// UpdateUserRequest is a partial update; absent fields are left untouched.
type UpdateUserRequest struct {
	Name                 util.Optional[string]   `json:"name" validate:"omitempty,max=255"`
	Email                util.Optional[string]   `json:"email" validate:"omitempty,email,max=255"`
	Password             util.Optional[string]   `json:"password" validate:"omitempty,min=8"`
	PasswordConfirmation util.Optional[string]   `json:"password_confirmation"`
	Roles                util.Optional[[]string] `json:"roles"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRefResponse is a user embedded in another resource.
type UserRefResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}
