package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	maxTitleLength = 255
	// maxInsertAttempts bounds retries after a concurrent insert claimed the same code.
	maxInsertAttempts = 3
)

var errCodesExhausted = errors.New("unable to allocate a unique ticket code")

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	tx         TxRunner
	audit      Auditor
	codes      CodeGenerator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Tx         TxRunner
	Auditor    Auditor
	Codes      CodeGenerator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title            string
	Description      *string
	Status           string
	Priority         string
	AssignedToUserID *string
}

// TicketUpdateInput carries the fields present in a partial update.
type TicketUpdateInput struct {
	Title            util.Optional[string]
	Description      util.Optional[string]
	Status           util.Optional[string]
	Priority         util.Optional[string]
	AssignedToUserID util.Optional[string]
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	codes := deps.Codes
	if codes == nil {
		codes = NewCodeGenerator()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		tx:         deps.Tx,
		audit:      deps.Auditor,
		codes:      codes,
		dispatcher: deps.Dispatcher,
		logger:     orNop(deps.Logger),
		now:        time.Now,
	}
}

// ListTickets returns a page of tickets with creator and assignee.
func (s *TicketService) ListTickets(ctx context.Context, params domain.ListParams) (domain.Page[domain.Ticket], error) {
	params, err := listParams(params, domain.TicketSortFields, "created_at", domain.SortDesc)
	if err != nil {
		return domain.Page[domain.Ticket]{}, err
	}
	page, err := s.tickets.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Ticket]{}, apperrors.NewInternalError(err)
	}
	return page, nil
}

// GetTicket loads a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket")
	}
	return ticket, nil
}

// CreateTicket opens a ticket on behalf of actorID, who always becomes its creator.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:            strings.TrimSpace(input.Title),
		Description:      trimmedOrNil(input.Description),
		Status:           domain.TicketStatus(input.Status),
		Priority:         domain.TicketPriority(input.Priority),
		CreatedByUserID:  actorID,
		AssignedToUserID: input.AssignedToUserID,
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	details := map[string]any{}
	validateTitle(details, ticket.Title)
	if !ticket.Status.Valid() {
		details["status"] = []string{"The selected status is invalid."}
	}
	if !ticket.Priority.Valid() {
		details["priority"] = []string{"The selected priority is invalid."}
	}
	if err := s.checkAssignee(ctx, details, ticket.AssignedToUserID); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}
	if ticket.Status == domain.TicketStatusClosed {
		now := s.now().UTC()
		ticket.CompletedAt = &now
	}

	var err error
	for range maxInsertAttempts {
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			code, err := s.nextCode(ctx)
			if err != nil {
				return err
			}
			ticket.Code = code
			if err := s.tickets.Create(ctx, ticket); err != nil {
				return err
			}
			return s.audit.Record(ctx, domain.Activity{
				LogName:     domain.LogTicket,
				Description: "Created ticket " + ticket.Code + ": " + ticket.Title,
				SubjectID:   ticket.ID,
				CauserID:    causer(actorID),
				Event:       domain.ActivityCreated,
				Properties: map[string]any{
					"attributes": map[string]any{
						"code":                ticket.Code,
						"title":               ticket.Title,
						"description":         nullable(ticket.Description),
						"status":              string(ticket.Status),
						"priority":            string(ticket.Priority),
						"created_by_user_id":  ticket.CreatedByUserID,
						"assigned_to_user_id": nullable(ticket.AssignedToUserID),
					},
				},
			})
		})
		if !apperrors.IsUniqueViolation(err, repository.TicketCodeConstraint) {
			break
		}
		s.logger.Warn("ticket code collided on insert, regenerating", zap.String("code", ticket.Code))
	}
	if err != nil {
		if apperrors.IsUniqueViolation(err, repository.TicketCodeConstraint) {
			return nil, apperrors.NewInternalError(errCodesExhausted)
		}
		return nil, apperrors.ToDomainError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketCreated, ticket.ID, actorID, events.TicketCreatedPayload{
		Code:             ticket.Code,
		Title:            ticket.Title,
		Priority:         ticket.Priority,
		AssignedToUserID: ticket.AssignedToUserID,
	}))
	return s.reload(ctx, ticket)
}

// UpdateTicket persists the fields of input whose values differ from the stored ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket")
	}

	details := map[string]any{}
	if input.Title.Set {
		validateTitle(details, strings.TrimSpace(input.Title.Value))
	}
	if input.Status.Set && !domain.TicketStatus(input.Status.Value).Valid() {
		details["status"] = []string{"The selected status is invalid."}
	}
	if input.Priority.Set && !domain.TicketPriority(input.Priority.Value).Valid() {
		details["priority"] = []string{"The selected priority is invalid."}
	}
	if err := s.checkAssignee(ctx, details, input.AssignedToUserID.Ptr()); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details)
	}

	var (
		current *domain.Ticket
		changed map[string]any
		old     map[string]any
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		current, err = s.tickets.GetByID(ctx, id)
		if err != nil {
			return apperrors.MapError(err, "ticket")
		}

		changes, attrs, prev := s.diffTicket(current, input)
		if len(changes) == 0 {
			return nil
		}
		if err := s.tickets.Update(ctx, id, changes); err != nil {
			return apperrors.MapError(err, "ticket")
		}
		changed, old = attrs, prev

		title := current.Title
		if t, ok := attrs[domain.TicketFieldTitle].(string); ok {
			title = t
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogTicket,
			Description: "Updated ticket: " + title,
			SubjectID:   id,
			CauserID:    causer(actorID),
			Event:       domain.ActivityUpdated,
			Properties:  map[string]any{"attributes": attrs, "old": prev},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	if len(changed) == 0 {
		return current, nil
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketUpdated, id, actorID, events.TicketUpdatedPayload{
		Code:    current.Code,
		Changed: changed,
		Old:     old,
	}))
	return s.reload(ctx, current)
}

// DeleteTicket removes a ticket and its replies.
func (s *TicketService) DeleteTicket(ctx context.Context, actorID, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("ticket")
	}
	var ticket *domain.Ticket
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.tickets.GetByID(ctx, id)
		if err != nil {
			return apperrors.MapError(err, "ticket")
		}
		if err := s.tickets.Delete(ctx, id); err != nil {
			return apperrors.MapError(err, "ticket")
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogTicket,
			Description: "Deleted ticket " + ticket.Code + ": " + ticket.Title,
			SubjectID:   id,
			CauserID:    causer(actorID),
			Event:       domain.ActivityDeleted,
			Properties: map[string]any{
				"ticket_id":    ticket.ID,
				"ticket_code":  ticket.Code,
				"ticket_title": ticket.Title,
			},
		})
	})
	if err != nil {
		return apperrors.ToDomainError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketDeleted, id, actorID, events.TicketDeletedPayload{
		Code:  ticket.Code,
		Title: ticket.Title,
	}))
	return nil
}

// diffTicket returns the column changes to write plus the audited new and old values.
func (s *TicketService) diffTicket(current *domain.Ticket, input TicketUpdateInput) (changes, attrs, old map[string]any) {
	changes, attrs, old = map[string]any{}, map[string]any{}, map[string]any{}

	if input.Title.Set {
		if title := strings.TrimSpace(input.Title.Value); title != current.Title {
			changes[domain.TicketFieldTitle] = title
			attrs[domain.TicketFieldTitle], old[domain.TicketFieldTitle] = title, current.Title
		}
	}
	if input.Description.Set {
		description := trimmedOrNil(input.Description.Ptr())
		if !equalPtr(description, current.Description) {
			changes[domain.TicketFieldDescription] = description
			attrs[domain.TicketFieldDescription] = nullable(description)
			old[domain.TicketFieldDescription] = nullable(current.Description)
		}
	}
	if input.Status.Set {
		if status := domain.TicketStatus(input.Status.Value); status != current.Status {
			changes[domain.TicketFieldStatus] = status
			attrs[domain.TicketFieldStatus], old[domain.TicketFieldStatus] = string(status), string(current.Status)
			switch {
			case status == domain.TicketStatusClosed:
				now := s.now().UTC()
				changes[domain.TicketFieldCompletedAt] = &now
			case current.Status == domain.TicketStatusClosed:
				changes[domain.TicketFieldCompletedAt] = (*time.Time)(nil)
			}
		}
	}
	if input.Priority.Set {
		if priority := domain.TicketPriority(input.Priority.Value); priority != current.Priority {
			changes[domain.TicketFieldPriority] = priority
			attrs[domain.TicketFieldPriority], old[domain.TicketFieldPriority] = string(priority), string(current.Priority)
		}
	}
	if input.AssignedToUserID.Set {
		assignee := input.AssignedToUserID.Ptr()
		if !equalPtr(assignee, current.AssignedToUserID) {
			changes[domain.TicketFieldAssignedTo] = assignee
			attrs[domain.TicketFieldAssignedTo] = nullable(assignee)
			old[domain.TicketFieldAssignedTo] = nullable(current.AssignedToUserID)
		}
	}
	return changes, attrs, old
}

func (s *TicketService) nextCode(ctx context.Context) (string, error) {
	for range maxCodeAttempts {
		code, err := s.codes.Next()
		if err != nil {
			return "", apperrors.NewInternalError(err)
		}
		taken, err := s.tickets.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.NewInternalError(errCodesExhausted)
}

func (s *TicketService) checkAssignee(ctx context.Context, details map[string]any, assignee *string) error {
	if assignee == nil {
		return nil
	}
	ok := validID(*assignee)
	if ok {
		var err error
		if ok, err = s.users.Exists(ctx, *assignee); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	if !ok {
		details[domain.TicketFieldAssignedTo] = []string{"The assigned user does not exist."}
	}
	return nil
}

func (s *TicketService) reload(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	fresh, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket")
	}
	return fresh, nil
}

func validateTitle(details map[string]any, title string) {
	switch {
	case title == "":
		details["title"] = []string{"The title field is required."}
	case utf8.RuneCountInString(title) > maxTitleLength:
		details["title"] = []string{"The title field must not be greater than 255 characters."}
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
