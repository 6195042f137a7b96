package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// ActivityRepository provides append-only access to the activity log.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.Activity) error
	ListByLogName(ctx context.Context, logName string, params domain.ListParams) (domain.Page[domain.Activity], error)
}

type activityRepository struct {
	db persistence.DB
}

// NewActivityRepository builds repository.
func NewActivityRepository(db persistence.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.Activity) error {
	props := entry.Properties
	if props == nil {
		props = map[string]any{}
	}
	payload, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("activity marshal properties: %w", err)
	}

	const query = `
        INSERT INTO activity_log (log_name, description, subject_type, subject_id, causer_id, event, properties)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		entry.LogName,
		entry.Description,
		entry.SubjectType,
		entry.SubjectID,
		entry.CauserID,
		entry.Event,
		payload,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityRepository) ListByLogName(ctx context.Context, logName string, params domain.ListParams) (domain.Page[domain.Activity], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	byLog := squirrel.Eq{"log_name": logName}
	countQuery := psql.Select("COUNT(*)").From("activity_log").Where(byLog)
	listQuery := psql.Select("id", "log_name", "description", "subject_type", "subject_id",
		"causer_id", "event", "properties", "created_at").
		From("activity_log").
		Where(byLog)
	if params.Search != "" {
		match := squirrel.ILike{"description": searchPattern(params.Search)}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.ActivitySortFields, "", "created_at")), params)

	page := domain.Page[domain.Activity]{Page: params.Page, PerPage: params.PerPage, Items: []domain.Activity{}}
	err := fetchPage(ctx,
		func(ctx context.Context) error {
			n, err := countRows(ctx, q, countQuery)
			page.Total = n
			return err
		},
		func(ctx context.Context) error {
			sql, args, err := listQuery.ToSql()
			if err != nil {
				return err
			}
			rows, err := q.Query(ctx, sql, args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				entry, err := scanActivity(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *entry)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.Activity]{}, err
	}
	return page, nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var (
		entry   domain.Activity
		payload []byte
	)
	if err := row.Scan(
		&entry.ID,
		&entry.LogName,
		&entry.Description,
		&entry.SubjectType,
		&entry.SubjectID,
		&entry.CauserID,
		&entry.Event,
		&payload,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entry.Properties); err != nil {
			return nil, fmt.Errorf("activity unmarshal properties: %w", err)
		}
	}
	return &entry, nil
}
