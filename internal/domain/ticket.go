package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusReopened   TicketStatus = "reopened"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed, TicketStatusReopened:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID               string
	Code             string
	Title            string
	Description      *string
	Status           TicketStatus
	Priority         TicketPriority
	CreatedByUserID  string
	AssignedToUserID *string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Populated by reads that join users.
	Creator  *UserRef
	Assignee *UserRef
}

// Ticket columns that can be changed after creation.
const (
	TicketFieldTitle       = "title"
	TicketFieldDescription = "description"
	TicketFieldStatus      = "status"
	TicketFieldPriority    = "priority"
	TicketFieldAssignedTo  = "assigned_to_user_id"
	TicketFieldCompletedAt = "completed_at"
)

// TicketSortFields lists the columns tickets can be ordered by.
var TicketSortFields = []string{"created_at", "updated_at", "title", "status", "priority", "code"}
