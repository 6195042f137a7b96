package repotest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.TicketCreateErrs) > 0 {
		err := s.TicketCreateErrs[0]
		s.TicketCreateErrs = s.TicketCreateErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, t := range s.tickets {
		if t.Code == ticket.Code {
			return uniqueViolation(repository.TicketCodeConstraint)
		}
	}
	ticket.ID = newID()
	ticket.CreatedAt = s.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	stored.Creator, stored.Assignee = nil, nil
	s.tickets[ticket.ID] = stored
	return nil
}

func (r *ticketRepo) Update(_ context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	for k, v := range changes {
		switch k {
		case domain.TicketFieldTitle:
			t.Title = v.(string)
		case domain.TicketFieldDescription:
			t.Description = v.(*string)
		case domain.TicketFieldStatus:
			t.Status = v.(domain.TicketStatus)
		case domain.TicketFieldPriority:
			t.Priority = v.(domain.TicketPriority)
		case domain.TicketFieldAssignedTo:
			t.AssignedToUserID = v.(*string)
		case domain.TicketFieldCompletedAt:
			t.CompletedAt = v.(*time.Time)
		}
	}
	t.UpdatedAt = s.tick()
	s.tickets[id] = t
	return nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	s.deleteTicketLocked(id)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.joinTicketLocked(&t)
	return &t, nil
}

func (r *ticketRepo) CodeExists(_ context.Context, code string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CodeChecks++
	for _, t := range s.tickets {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *ticketRepo) List(_ context.Context, p domain.ListParams) (domain.Page[domain.Ticket], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.Ticket{}
	for _, t := range s.tickets {
		description := ""
		if t.Description != nil {
			description = *t.Description
		}
		if p.Search == "" || contains(t.Title, p.Search) || contains(description, p.Search) {
			s.joinTicketLocked(&t)
			items = append(items, t)
		}
	}
	sortBy(items, p, "created_at", func(t domain.Ticket, field string) string {
		switch field {
		case "title":
			return t.Title
		case "status":
			return string(t.Status)
		case "priority":
			return string(t.Priority)
		case "code":
			return t.Code
		case "updated_at":
			return stamp(t.UpdatedAt)
		default:
			return stamp(t.CreatedAt)
		}
	})
	return page(items, p), nil
}

func (s *Store) deleteTicketLocked(id string) {
	delete(s.tickets, id)
	for rid, reply := range s.replies {
		if reply.TicketID == id {
			delete(s.replies, rid)
		}
	}
}

func (s *Store) userRefLocked(id string) *domain.UserRef {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *Store) joinTicketLocked(t *domain.Ticket) {
	t.Creator = s.userRefLocked(t.CreatedByUserID)
	t.Assignee = nil
	if t.AssignedToUserID != nil {
		t.Assignee = s.userRefLocked(*t.AssignedToUserID)
	}
}

type replyRepo struct{ s *Store }

func (r *replyRepo) Create(_ context.Context, reply *domain.TicketReply) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	reply.ID = newID()
	reply.CreatedAt = s.tick()
	reply.UpdatedAt = reply.CreatedAt
	stored := *reply
	stored.Author = nil
	s.replies[reply.ID] = stored
	return nil
}

func (r *replyRepo) UpdateContent(_ context.Context, id, content string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, ok := s.replies[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reply.Content = content
	reply.UpdatedAt = s.tick()
	s.replies[id] = reply
	return nil
}

func (r *replyRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.replies, id)
	return nil
}

func (r *replyRepo) GetByID(_ context.Context, id string) (*domain.TicketReply, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	reply, ok := s.replies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	reply.Author = s.userRefLocked(reply.UserID)
	return &reply, nil
}

func (r *replyRepo) ListByTicket(_ context.Context, ticketID string, p domain.ListParams) (domain.Page[domain.TicketReply], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.TicketReply{}
	for _, reply := range s.replies {
		if reply.TicketID != ticketID {
			continue
		}
		if p.Search == "" || contains(reply.Content, p.Search) {
			reply.Author = s.userRefLocked(reply.UserID)
			items = append(items, reply)
		}
	}
	if p.SortOrder == "" {
		p.SortOrder = domain.SortAsc
	}
	sortBy(items, p, "created_at", func(reply domain.TicketReply, field string) string {
		if field == "updated_at" {
			return stamp(reply.UpdatedAt)
		}
		return stamp(reply.CreatedAt)
	})
	return page(items, p), nil
}

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(_ context.Context, entry *domain.Activity) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = newID()
	entry.CreatedAt = s.tick()
	if entry.Properties == nil {
		entry.Properties = map[string]any{}
	}
	s.activities = append(s.activities, *entry)
	return nil
}

func (r *activityRepo) ListByLogName(_ context.Context, logName string, p domain.ListParams) (domain.Page[domain.Activity], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []domain.Activity{}
	for _, a := range s.activities {
		if a.LogName == logName && (p.Search == "" || contains(a.Description, p.Search)) {
			items = append(items, a)
		}
	}
	sortBy(items, p, "created_at", func(a domain.Activity, _ string) string {
		return stamp(a.CreatedAt)
	})
	return page(items, p), nil
}

