package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

func TestNotificationChannelsPerEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/helpdesk",
	})
	ctx := context.Background()

	cases := []struct {
		name    string
		event   events.Event
		email   int
		webhook int
	}{
		{"created", events.New(events.EventTicketCreated, "t1", "u1", nil), 1, 1},
		{"status change", events.New(events.EventTicketUpdated, "t1", "u1", events.TicketUpdatedPayload{
			Changed: map[string]any{"status": "closed"},
		}), 0, 1},
		{"reassigned", events.New(events.EventTicketUpdated, "t1", "u1", events.TicketUpdatedPayload{
			Changed: map[string]any{"assigned_to_user_id": "u2"},
		}), 1, 1},
		{"deleted", events.New(events.EventTicketDeleted, "t1", "u1", nil), 0, 1},
		{"reply", events.New(events.EventTicketReplyCreated, "t1", "u1", nil), 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs.TakeAll()
			require.NoError(t, n.Handle(ctx, tc.event))
			assert.Equal(t, tc.email, logs.FilterMessage("email notification").Len())
			assert.Equal(t, tc.webhook, logs.FilterMessage("webhook notification").Len())
		})
	}
}

func TestNotificationStubsNeedEndpoints(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{})

	require.NoError(t, n.Handle(context.Background(), events.New(events.EventTicketCreated, "t1", "u1", nil)))
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "ticket created", logs.All()[0].Message)
}
