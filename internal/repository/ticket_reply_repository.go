package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// TicketReplyRepository manages replies posted on tickets.
type TicketReplyRepository interface {
	Create(ctx context.Context, reply *domain.TicketReply) error
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketReply, error)
	ListByTicket(ctx context.Context, ticketID string, params domain.ListParams) (domain.Page[domain.TicketReply], error)
}

type ticketReplyRepository struct {
	db persistence.DB
}

// NewTicketReplyRepository builds repository.
func NewTicketReplyRepository(db persistence.DB) TicketReplyRepository {
	return &ticketReplyRepository{db: db}
}

var replyColumns = []string{
	"tr.id", "tr.ticket_id", "tr.user_id", "tr.content", "tr.created_at", "tr.updated_at", "u.name", "u.email",
}

func (r *ticketReplyRepository) Create(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, user_id, content)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		reply.TicketID,
		reply.UserID,
		reply.Content,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

func (r *ticketReplyRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE ticket_replies SET content=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, content, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketReplyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM ticket_replies WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketReplyRepository) GetByID(ctx context.Context, id string) (*domain.TicketReply, error) {
	sql, args, err := selectReplies().Where(squirrel.Eq{"tr.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanReply(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...))
}

func (r *ticketReplyRepository) ListByTicket(ctx context.Context, ticketID string, params domain.ListParams) (domain.Page[domain.TicketReply], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	byTicket := squirrel.Eq{"tr.ticket_id": ticketID}
	countQuery := psql.Select("COUNT(*)").From("ticket_replies tr").Where(byTicket)
	listQuery := selectReplies().Where(byTicket)
	if params.Search != "" {
		match := squirrel.ILike{"tr.content": searchPattern(params.Search)}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.TicketReplySortFields, "tr.", "created_at")), params)

	page := domain.Page[domain.TicketReply]{Page: params.Page, PerPage: params.PerPage, Items: []domain.TicketReply{}}
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
				reply, err := scanReply(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *reply)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.TicketReply]{}, err
	}
	return page, nil
}

func selectReplies() squirrel.SelectBuilder {
	return psql.Select(replyColumns...).
		From("ticket_replies tr").
		Join("users u ON u.id = tr.user_id")
}

func scanReply(row pgx.Row) (*domain.TicketReply, error) {
	var (
		reply  domain.TicketReply
		author domain.UserRef
	)
	if err := row.Scan(
		&reply.ID,
		&reply.TicketID,
		&reply.UserID,
		&reply.Content,
		&reply.CreatedAt,
		&reply.UpdatedAt,
		&author.Name,
		&author.Email,
	); err != nil {
		return nil, err
	}
	author.ID = reply.UserID
	reply.Author = &author
	return &reply, nil
}
