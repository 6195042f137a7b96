package auth

import "slices"

// Permission is a token a role can grant, such as "tickets-create".
type Permission string

const (
	DashboardAccess Permission = "dashboard-access"

	PermissionsAccess Permission = "permissions-access"
	PermissionsCreate Permission = "permissions-create"
	PermissionsUpdate Permission = "permissions-update"
	PermissionsDelete Permission = "permissions-delete"

	RolesAccess Permission = "roles-access"
	RolesCreate Permission = "roles-create"
	RolesUpdate Permission = "roles-update"
	RolesDelete Permission = "roles-delete"

	UsersAccess      Permission = "users-access"
	UsersCreate      Permission = "users-create"
	UsersUpdate      Permission = "users-update"
	UsersDelete      Permission = "users-delete"
	UsersActivityLog Permission = "users-activity-log"

	CategoriesAccess      Permission = "categories-access"
	CategoriesCreate      Permission = "categories-create"
	CategoriesUpdate      Permission = "categories-update"
	CategoriesDelete      Permission = "categories-delete"
	CategoriesActivityLog Permission = "categories-activity-log"

	TicketsAccess      Permission = "tickets-access"
	TicketsCreate      Permission = "tickets-create"
	TicketsUpdate      Permission = "tickets-update"
	TicketsDelete      Permission = "tickets-delete"
	TicketsActivityLog Permission = "tickets-activity-log"

	TicketRepliesAccess      Permission = "ticket-replies-access"
	TicketRepliesCreate      Permission = "ticket-replies-create"
	TicketRepliesUpdate      Permission = "ticket-replies-update"
	TicketRepliesDelete      Permission = "ticket-replies-delete"
	TicketRepliesActivityLog Permission = "ticket-replies-activity-log"
)

var catalogue = []Permission{
	DashboardAccess,
	PermissionsAccess, PermissionsCreate, PermissionsUpdate, PermissionsDelete,
	RolesAccess, RolesCreate, RolesUpdate, RolesDelete,
	UsersAccess, UsersCreate, UsersUpdate, UsersDelete, UsersActivityLog,
	CategoriesAccess, CategoriesCreate, CategoriesUpdate, CategoriesDelete, CategoriesActivityLog,
	TicketsAccess, TicketsCreate, TicketsUpdate, TicketsDelete, TicketsActivityLog,
	TicketRepliesAccess, TicketRepliesCreate, TicketRepliesUpdate, TicketRepliesDelete, TicketRepliesActivityLog,
}

// All returns the permission catalogue in seeding order.
func All() []Permission {
	return slices.Clone(catalogue)
}

// Known reports whether p is part of the catalogue.
func Known(p Permission) bool {
	return slices.Contains(catalogue, p)
}

// Names converts permissions to their string tokens.
func Names(perms ...Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
