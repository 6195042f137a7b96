package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationEvents are the event types the notification service reacts to.
var NotificationEvents = []events.EventType{
	events.EventTicketCreated,
	events.EventTicketUpdated,
	events.EventTicketDeleted,
	events.EventTicketReplyCreated,
}

// NotificationService fans ticket events out to the email and webhook stubs.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: orNop(logger),
		cfg:    cfg,
	}
}

// Handle routes one event to the matching channel stubs. Unknown types are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTicketCreated:
		n.logger.Info("ticket created", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
		n.sendEmail(ctx, event)
		n.sendWebhook(ctx, event)
	case events.EventTicketUpdated:
		n.logger.Info("ticket updated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
		if payload, ok := event.Payload.(events.TicketUpdatedPayload); ok {
			if _, reassigned := payload.Changed["assigned_to_user_id"]; reassigned {
				n.sendEmail(ctx, event)
			}
		}
		n.sendWebhook(ctx, event)
	case events.EventTicketDeleted:
		n.logger.Info("ticket deleted", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
		n.sendWebhook(ctx, event)
	case events.EventTicketReplyCreated:
		n.logger.Info("ticket reply created", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
		n.sendEmail(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmail(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
