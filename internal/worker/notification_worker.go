package worker

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Notifier consumes queued events.
type Notifier interface {
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves notification delivery off the request path.
// Events are buffered; when the buffer is full new events are dropped.
type NotificationWorker struct {
	notifier    Notifier
	queue       chan events.Event
	concurrency int
	logger      *zap.Logger
}

// NewNotificationWorker builds a worker with the given buffer size and goroutine count.
func NewNotificationWorker(notifier Notifier, logger *zap.Logger, buffer, concurrency int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 0 {
		buffer = 0
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &NotificationWorker{
		notifier:    notifier,
		queue:       make(chan events.Event, buffer),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Subscribe registers the worker for every notification event on dispatcher.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range service.NotificationEvents {
		dispatcher.Subscribe(eventType, w.Enqueue)
	}
}

// Enqueue buffers event without blocking the publisher.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Run delivers queued events until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case event := <-w.queue:
					w.deliver(gctx, event)
				}
			}
		})
	}
	return g.Wait()
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification handler panicked", zap.Any("panic", r), zap.String("event_id", event.ID))
		}
	}()
	if err := w.notifier.Handle(ctx, event); err != nil {
		w.logger.Warn("notification failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
