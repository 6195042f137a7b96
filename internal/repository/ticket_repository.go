package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// TicketCodeConstraint is the unique constraint guarding ticket codes.
const TicketCodeConstraint = "tickets_code_key"

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the given columns and bumps updated_at.
	Update(ctx context.Context, id string, changes map[string]any) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Ticket], error)
}

type ticketRepository struct {
	db persistence.DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db persistence.DB) TicketRepository {
	return &ticketRepository{db: db}
}

var ticketColumns = []string{
	"t.id", "t.code", "t.title", "t.description", "t.status", "t.priority",
	"t.created_by_user_id", "t.assigned_to_user_id", "t.completed_at", "t.created_at", "t.updated_at",
	"cu.name", "cu.email", "au.name", "au.email",
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, title, description, status, priority, created_by_user_id, assigned_to_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedByUserID,
		ticket.AssignedToUserID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	update := psql.Update("tickets").
		SetMap(changes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	affected, err := execAffecting(ctx, persistence.QuerierFromCtx(ctx, r.db), update)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tickets WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	sql, args, err := selectTickets().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanTicket(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...))
}

func (r *ticketRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM tickets WHERE code=$1)`
	return exists(ctx, persistence.QuerierFromCtx(ctx, r.db), query, code)
}

func (r *ticketRepository) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Ticket], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	countQuery := psql.Select("COUNT(*)").From("tickets t")
	listQuery := selectTickets()
	if params.Search != "" {
		pattern := searchPattern(params.Search)
		match := squirrel.Or{
			squirrel.ILike{"t.title": pattern},
			squirrel.ILike{"t.description": pattern},
		}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.TicketSortFields, "t.", "created_at")), params)

	page := domain.Page[domain.Ticket]{Page: params.Page, PerPage: params.PerPage, Items: []domain.Ticket{}}
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
				ticket, err := scanTicket(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *ticket)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.Ticket]{}, err
	}
	return page, nil
}

func selectTickets() squirrel.SelectBuilder {
	return psql.Select(ticketColumns...).
		From("tickets t").
		LeftJoin("users cu ON cu.id = t.created_by_user_id").
		LeftJoin("users au ON au.id = t.assigned_to_user_id")
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket                      domain.Ticket
		creatorName, creatorEmail   *string
		assigneeName, assigneeEmail *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedByUserID,
		&ticket.AssignedToUserID,
		&ticket.CompletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}
	if creatorName != nil {
		ticket.Creator = &domain.UserRef{ID: ticket.CreatedByUserID, Name: *creatorName, Email: deref(creatorEmail)}
	}
	if ticket.AssignedToUserID != nil && assigneeName != nil {
		ticket.Assignee = &domain.UserRef{ID: *ticket.AssignedToUserID, Name: *assigneeName, Email: deref(assigneeEmail)}
	}
	return &ticket, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
