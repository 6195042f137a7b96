package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title            string  `json:"title" validate:"required,max=255"`
	Description      *string `json:"description"`
	Status           string  `json:"status" validate:"omitempty,oneof=open in_progress closed reopened"`
	Priority         string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedToUserID *string `json:"assigned_to_user_id" validate:"omitempty,uuid"`
}

// UpdateTicketRequest is a partial update; null clears description and assignee.
type UpdateTicketRequest struct {
	Title            util.Optional[string] `json:"title" validate:"omitempty,max=255"`
	Description      util.Optional[string] `json:"description"`
	Status           util.Optional[string] `json:"status" validate:"omitempty,oneof=open in_progress closed reopened"`
	Priority         util.Optional[string] `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedToUserID util.Optional[string] `json:"assigned_to_user_id" validate:"omitempty,uuid"`
}

// TicketResponse represents a ticket with its creator and assignee.
type TicketResponse struct {
	ID          string           `json:"id"`
	Code        string           `json:"code"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	CreatedBy   *UserRefResponse `json:"created_by"`
	AssignedTo  *UserRefResponse `json:"assigned_to"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

// CreateReplyRequest payload.
type CreateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateReplyRequest payload; an absent content leaves the reply unchanged.
type UpdateReplyRequest struct {
	Content util.Optional[string] `json:"content"`
}

// ReplyResponse represents a ticket reply and its author.
type ReplyResponse struct {
	ID        string           `json:"id"`
	TicketID  string           `json:"ticket_id"`
	Content   string           `json:"content"`
	User      *UserRefResponse `json:"user"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
