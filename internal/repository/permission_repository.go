package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// PermissionNameConstraint is the unique constraint on permissions.name.
const PermissionNameConstraint = "permissions_name_key"

// PermissionRepository manages permission tokens.
type PermissionRepository interface {
	Create(ctx context.Context, perm *domain.Permission) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Permission, error)
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	IDsByNames(ctx context.Context, names []string) (map[string]string, error)
	List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Permission], error)
}

type permissionRepository struct {
	db persistence.DB
}

// NewPermissionRepository returns a Postgres-backed implementation.
func NewPermissionRepository(db persistence.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *domain.Permission) error {
	const query = `
        INSERT INTO permissions (name) VALUES ($1)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, perm.Name).
		Scan(&perm.ID, &perm.CreatedAt, &perm.UpdatedAt)
}

func (r *permissionRepository) Rename(ctx context.Context, id, name string) error {
	const query = `UPDATE permissions SET name=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *permissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM permissions WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *permissionRepository) GetByID(ctx context.Context, id string) (*domain.Permission, error) {
	const query = `SELECT id, name, created_at, updated_at FROM permissions WHERE id=$1`
	return scanPermission(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *permissionRepository) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if exceptID == "" {
		return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM permissions WHERE name=$1)`, name)
	}
	return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM permissions WHERE name=$1 AND id<>$2)`, name, exceptID)
}

func (r *permissionRepository) IDsByNames(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}
	const query = `SELECT name, id FROM permissions WHERE name = ANY($1)`
	return scanNameIDs(ctx, persistence.QuerierFromCtx(ctx, r.db), query, names)
}

func (r *permissionRepository) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Permission], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	countQuery := psql.Select("COUNT(*)").From("permissions")
	listQuery := psql.Select("id", "name", "created_at", "updated_at").From("permissions")
	if params.Search != "" {
		match := squirrel.ILike{"name": searchPattern(params.Search)}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.PermissionSortFields, "", "created_at")), params)

	page := domain.Page[domain.Permission]{Page: params.Page, PerPage: params.PerPage, Items: []domain.Permission{}}
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
				perm, err := scanPermission(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *perm)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.Permission]{}, err
	}
	return page, nil
}

func scanPermission(row pgx.Row) (*domain.Permission, error) {
	var perm domain.Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
		return nil, err
	}
	return &perm, nil
}
