package domain

import "time"

// MinReplyLength is the minimum reply content length in characters after trimming.
const MinReplyLength = 10

// TicketReply is a message posted on a ticket.
type TicketReply struct {
	ID        string
	TicketID  string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time

	Author *UserRef
}

// TicketReplySortFields lists the columns replies can be ordered by.
var TicketReplySortFields = []string{"created_at", "updated_at"}
