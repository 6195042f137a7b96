package service

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const replyPreviewLength = 120

// TicketReplyService manages replies nested under a ticket.
type TicketReplyService struct {
	replies    repository.TicketReplyRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	tx         TxRunner
	audit      Auditor
	dispatcher events.Dispatcher
	policy     *bluemonday.Policy
	text       *bluemonday.Policy
	logger     *zap.Logger
}

// TicketReplyDependencies bundles collaborators for the reply service.
type TicketReplyDependencies struct {
	ReplyRepo  repository.TicketReplyRepository
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Tx         TxRunner
	Auditor    Auditor
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketReplyService constructs the service.
func NewTicketReplyService(deps TicketReplyDependencies) *TicketReplyService {
	return &TicketReplyService{
		replies:    deps.ReplyRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		tx:         deps.Tx,
		audit:      deps.Auditor,
		dispatcher: deps.Dispatcher,
		policy:     bluemonday.UGCPolicy(),
		text:       bluemonday.StrictPolicy(),
		logger:     orNop(deps.Logger),
	}
}

// ListReplies returns a page of replies on ticketID, oldest first by default.
func (s *TicketReplyService) ListReplies(ctx context.Context, ticketID string, params domain.ListParams) (domain.Page[domain.TicketReply], error) {
	if _, err := s.ticket(ctx, ticketID); err != nil {
		return domain.Page[domain.TicketReply]{}, err
	}
	params, err := listParams(params, domain.TicketReplySortFields, "created_at", domain.SortAsc)
	if err != nil {
		return domain.Page[domain.TicketReply]{}, err
	}
	page, err := s.replies.ListByTicket(ctx, ticketID, params)
	if err != nil {
		return domain.Page[domain.TicketReply]{}, apperrors.NewInternalError(err)
	}

	authorIDs := make([]string, 0, len(page.Items))
	for _, reply := range page.Items {
		authorIDs = append(authorIDs, reply.UserID)
	}
	roles, err := s.users.RoleNames(ctx, authorIDs)
	if err != nil {
		return domain.Page[domain.TicketReply]{}, apperrors.NewInternalError(err)
	}
	for i := range page.Items {
		if author := page.Items[i].Author; author != nil {
			author.Roles = roles[author.ID]
		}
	}
	return page, nil
}

// GetReply loads a reply that belongs to ticketID.
func (s *TicketReplyService) GetReply(ctx context.Context, ticketID, replyID string) (*domain.TicketReply, error) {
	if _, err := s.ticket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.reply(ctx, ticketID, replyID)
}

// CreateReply posts content on ticketID as actorID.
func (s *TicketReplyService) CreateReply(ctx context.Context, actorID, ticketID, content string) (*domain.TicketReply, error) {
	ticket, err := s.ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	content, err = s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	reply := &domain.TicketReply{TicketID: ticket.ID, UserID: actorID, Content: content}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.replies.Create(ctx, reply); err != nil {
			return err
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogTicketReply,
			Description: "Created reply for ticket " + ticket.Code,
			SubjectID:   reply.ID,
			CauserID:    causer(actorID),
			Event:       domain.ActivityCreated,
			Properties: map[string]any{
				"attributes": map[string]any{
					"ticket_id": reply.TicketID,
					"user_id":   reply.UserID,
					"content":   reply.Content,
				},
				"ticket_id":   ticket.ID,
				"ticket_code": ticket.Code,
			},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTicketReplyCreated, ticket.ID, actorID, events.TicketReplyCreatedPayload{
		ReplyID:     reply.ID,
		TicketCode:  ticket.Code,
		AuthorID:    actorID,
		BodyPreview: preview(reply.Content, replyPreviewLength),
	}))
	return s.reply(ctx, ticket.ID, reply.ID)
}

// UpdateReply replaces the content of a reply. An absent content is a no-op.
func (s *TicketReplyService) UpdateReply(ctx context.Context, actorID, ticketID, replyID string, content util.Optional[string]) (*domain.TicketReply, error) {
	ticket, err := s.ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	reply, err := s.reply(ctx, ticketID, replyID)
	if err != nil {
		return nil, err
	}
	if !content.Set {
		return reply, nil
	}
	cleaned, err := s.cleanContent(content.Value)
	if err != nil {
		return nil, err
	}
	if cleaned == reply.Content {
		return reply, nil
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.replies.UpdateContent(ctx, reply.ID, cleaned); err != nil {
			return apperrors.MapError(err, "ticket reply")
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogTicketReply,
			Description: "Updated reply " + reply.ID + " for ticket " + ticket.Code,
			SubjectID:   reply.ID,
			CauserID:    causer(actorID),
			Event:       domain.ActivityUpdated,
			Properties: map[string]any{
				"attributes":  map[string]any{"content": cleaned},
				"old":         map[string]any{"content": reply.Content},
				"ticket_id":   ticket.ID,
				"ticket_code": ticket.Code,
			},
		})
	})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return s.reply(ctx, ticket.ID, reply.ID)
}

// DeleteReply removes a reply that belongs to ticketID.
func (s *TicketReplyService) DeleteReply(ctx context.Context, actorID, ticketID, replyID string) error {
	ticket, err := s.ticket(ctx, ticketID)
	if err != nil {
		return err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		reply, err := s.reply(ctx, ticketID, replyID)
		if err != nil {
			return err
		}
		if err := s.replies.Delete(ctx, reply.ID); err != nil {
			return apperrors.MapError(err, "ticket reply")
		}
		return s.audit.Record(ctx, domain.Activity{
			LogName:     domain.LogTicketReply,
			Description: "Deleted reply " + reply.ID + " for ticket " + ticket.Code,
			SubjectID:   reply.ID,
			CauserID:    causer(actorID),
			Event:       domain.ActivityDeleted,
			Properties: map[string]any{
				"ticket_reply_id": reply.ID,
				"ticket_id":       ticket.ID,
				"ticket_code":     ticket.Code,
			},
		})
	})
	if err != nil {
		return apperrors.ToDomainError(err)
	}
	return nil
}

func (s *TicketReplyService) ticket(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket")
	}
	return ticket, nil
}

// reply loads replyID and hides replies that belong to another ticket.
func (s *TicketReplyService) reply(ctx context.Context, ticketID, replyID string) (*domain.TicketReply, error) {
	if !validID(replyID) {
		return nil, apperrors.NewNotFound("ticket reply")
	}
	reply, err := s.replies.GetByID(ctx, replyID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket reply")
	}
	if reply.TicketID != ticketID {
		return nil, apperrors.NewNotFound("ticket reply")
	}
	return reply, nil
}

// textEntities undoes the escaping the sanitizer applies to characters that are
// safe inside a text node. Angle brackets stay escaped.
var textEntities = strings.NewReplacer("&#39;", "'", "&#34;", `"`, "&amp;", "&")

// cleanContent strips unsafe markup and measures the length of the visible text.
func (s *TicketReplyService) cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(textEntities.Replace(s.policy.Sanitize(raw)))
	visible := strings.TrimSpace(html.UnescapeString(s.text.Sanitize(content)))
	switch {
	case visible == "":
		return "", apperrors.NewFieldError("content", "The content field is required.")
	case utf8.RuneCountInString(visible) < domain.MinReplyLength:
		return "", apperrors.NewFieldError("content", "The content field must be at least 10 characters.")
	}
	return content, nil
}

func preview(body string, max int) string {
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	return string(runes[:max]) + "…"
}
