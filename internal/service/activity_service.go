package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ActivityService writes and reads the audit log.
type ActivityService struct {
	repo repository.ActivityRepository
}

// NewActivityService constructs the service.
func NewActivityService(repo repository.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// Record appends entry. Updates that changed nothing are dropped.
func (s *ActivityService) Record(ctx context.Context, entry domain.Activity) error {
	if entry.Event == domain.ActivityUpdated {
		attrs, _ := entry.Properties["attributes"].(map[string]any)
		if len(attrs) == 0 {
			return nil
		}
	}
	if entry.SubjectType == "" {
		entry.SubjectType = entry.LogName
	}
	return s.repo.Create(ctx, &entry)
}

// List returns one page of a log, newest first by default.
func (s *ActivityService) List(ctx context.Context, logName string, params domain.ListParams) (domain.Page[domain.Activity], error) {
	params, err := listParams(params, domain.ActivitySortFields, "created_at", domain.SortDesc)
	if err != nil {
		return domain.Page[domain.Activity]{}, err
	}
	return s.repo.ListByLogName(ctx, logName, params)
}
