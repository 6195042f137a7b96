package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// RoleRequest payload for creating a role.
type RoleRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

// UpdateRoleRequest renames a role or replaces its permission set.
type UpdateRoleRequest struct {
	Name        util.Optional[string]   `json:"name" validate:"omitempty,max=255"`
	Permissions util.Optional[[]string] `json:"permissions"`
}

// RoleResponse describes a role.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	UsersCount  int       `json:"users_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionRequest payload for creating or renaming a permission.
type PermissionRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// PermissionResponse describes a permission token.
type PermissionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
