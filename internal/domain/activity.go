package domain

import "time"

// Activity log names, one per audited resource.
const (
	LogUser        = "user"
	LogCategory    = "category"
	LogTicket      = "ticket"
	LogTicketReply = "ticket_reply"
)

// ActivityEvent is the kind of mutation an entry records.
type ActivityEvent string

const (
	ActivityCreated ActivityEvent = "created"
	ActivityUpdated ActivityEvent = "updated"
	ActivityDeleted ActivityEvent = "deleted"
)

// Activity is an append-only audit entry.
type Activity struct {
	ID          string
	LogName     string
	Description string
	SubjectType string
	SubjectID   string
	CauserID    *string
	Event       ActivityEvent
	Properties  map[string]any
	CreatedAt   time.Time
}

// ActivitySortFields lists the columns activity entries can be ordered by.
var ActivitySortFields = []string{"created_at"}
