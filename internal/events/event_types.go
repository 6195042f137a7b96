package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketDeleted      EventType = "ticket_deleted"
	EventTicketReplyCreated EventType = "ticket_reply_created"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code             string                `json:"code"`
	Title            string                `json:"title"`
	Priority         domain.TicketPriority `json:"priority"`
	AssignedToUserID *string               `json:"assigned_to_user_id,omitempty"`
}

// TicketUpdatedPayload carries the changed columns with old and new values.
type TicketUpdatedPayload struct {
	Code    string         `json:"code"`
	Changed map[string]any `json:"changed"`
	Old     map[string]any `json:"old"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// TicketReplyCreatedPayload payload.
type TicketReplyCreatedPayload struct {
	ReplyID     string `json:"reply_id"`
	TicketCode  string `json:"ticket_code"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}
