package domain

import "time"

// User is an account that can authenticate and act on tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Roles []string
}

// UserRef is the public identity of a user embedded in other resources.
type UserRef struct {
	ID    string
	Name  string
	Email string
	Roles []string
}

// Grants is the resolved RBAC state of a user.
type Grants struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// UserSortFields lists the columns users can be ordered by.
var UserSortFields = []string{"created_at", "updated_at", "name", "email"}
