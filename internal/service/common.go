package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TxRunner runs fn inside one database transaction carried by ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Auditor appends activity log entries.
type Auditor interface {
	Record(ctx context.Context, entry domain.Activity) error
}

// GrantsInvalidator drops cached permission sets after an RBAC change.
type GrantsInvalidator interface {
	Invalidate(ctx context.Context)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context) {}

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// listParams validates ordering against allowed and fills defaults.
func listParams(p domain.ListParams, allowed []string, defaultSort string, defaultOrder domain.SortOrder) (domain.ListParams, error) {
	details := map[string]any{}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	} else if !slices.Contains(allowed, p.SortBy) {
		details["sort_by"] = []string{"The selected sort_by is invalid."}
	}
	switch p.SortOrder {
	case "":
		p.SortOrder = defaultOrder
	case domain.SortAsc, domain.SortDesc:
	default:
		details["sort_order"] = []string{"The selected sort_order is invalid."}
	}
	if p.PerPage > maxPerPage {
		details["per_page"] = []string{fmt.Sprintf("The per_page field must not be greater than %d.", maxPerPage)}
	}
	if len(details) > 0 {
		return p, apperrors.NewValidationError("validation failed", details)
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p, nil
}

// validID reports whether id can address a row; anything else is treated as missing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func causer(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// publish hands event to the dispatcher after commit. Handler failures are logged only.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
