package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

type recordingNotifier struct {
	mu   sync.Mutex
	seen []events.EventType
	err  error
}

func (r *recordingNotifier) Handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, event.Type)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestWorkerDeliversPublishedEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewNotificationWorker(notifier, nil, 8, 2)
	dispatcher := events.NewInMemoryDispatcher()
	w.Subscribe(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventTicketCreated, "t1", "u1", nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventTicketReplyCreated, "t1", "u1", nil)))

	require.Eventually(t, func() bool { return notifier.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.ElementsMatch(t, []events.EventType{events.EventTicketCreated, events.EventTicketReplyCreated}, notifier.seen)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	w := NewNotificationWorker(&recordingNotifier{}, zap.New(core), 1, 1)

	require.NoError(t, w.Enqueue(context.Background(), events.New(events.EventTicketDeleted, "t1", "u1", nil)))
	require.NoError(t, w.Enqueue(context.Background(), events.New(events.EventTicketDeleted, "t2", "u1", nil)))

	assert.Len(t, w.queue, 1)
	assert.Equal(t, 1, logs.FilterMessage("notification queue full, dropping event").Len())
}

func TestWorkerLogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	w := NewNotificationWorker(notifier, zap.New(core), 4, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, w.Enqueue(ctx, events.New(events.EventTicketUpdated, "t1", "u1", nil)))
	require.Eventually(t, func() bool { return logs.FilterMessage("notification failed").Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
