package domain

import "time"

// Role groups permissions and is assigned to users.
type Role struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Permissions []string
	UsersCount  int
}

// Permission is an atomic capability token such as "tickets-create".
type Permission struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleSortFields lists the columns roles can be ordered by.
var RoleSortFields = []string{"created_at", "updated_at", "name"}

// PermissionSortFields lists the columns permissions can be ordered by.
var PermissionSortFields = []string{"created_at", "updated_at", "name"}
