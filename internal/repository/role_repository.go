package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// Role constraints surfaced to the service layer.
const (
	RoleNameConstraint      = "roles_name_key"
	UserRolesRoleConstraint = "user_roles_role_id_fkey"
)

// RoleRepository manages roles, their permission sets and RBAC lookups.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	// LockByID takes a row lock on the role for the rest of the transaction.
	LockByID(ctx context.Context, id string) error
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	IDsByNames(ctx context.Context, names []string) (map[string]string, error)
	CountAssignments(ctx context.Context, id string) (int, error)
	SyncPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Role], error)
	GrantsForUser(ctx context.Context, userID string) (domain.Grants, error)
}

type roleRepository struct {
	db persistence.DB
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(db persistence.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (name) VALUES ($1)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, role.Name).
		Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

func (r *roleRepository) Rename(ctx context.Context, id, name string) error {
	const query = `UPDATE roles SET name=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM roles WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	const query = `
        SELECT r.id, r.name, r.created_at, r.updated_at,
               (SELECT COUNT(*) FROM user_roles ur WHERE ur.role_id = r.id)
        FROM roles r WHERE r.id=$1`
	q := persistence.QuerierFromCtx(ctx, r.db)
	role, err := scanRole(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	const permsQuery = `
        SELECT p.name FROM permissions p
        JOIN role_permissions rp ON rp.permission_id = p.id
        WHERE rp.role_id=$1 ORDER BY p.name`
	role.Permissions, err = scanStrings(ctx, q, permsQuery, id)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *roleRepository) LockByID(ctx context.Context, id string) error {
	const query = `SELECT id FROM roles WHERE id=$1 FOR UPDATE`
	var locked string
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id).Scan(&locked)
}

func (r *roleRepository) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if exceptID == "" {
		return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM roles WHERE name=$1)`, name)
	}
	return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM roles WHERE name=$1 AND id<>$2)`, name, exceptID)
}

func (r *roleRepository) IDsByNames(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}
	const query = `SELECT name, id FROM roles WHERE name = ANY($1)`
	return scanNameIDs(ctx, persistence.QuerierFromCtx(ctx, r.db), query, names)
}

func (r *roleRepository) CountAssignments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM user_roles WHERE role_id=$1`
	var n int
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *roleRepository) SyncPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id=$1`, roleID); err != nil {
		return err
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO role_permissions (role_id, permission_id)
        SELECT $1, unnest($2::uuid[])
        ON CONFLICT DO NOTHING`
	_, err := q.Exec(ctx, query, roleID, permissionIDs)
	return err
}

func (r *roleRepository) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Role], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	countQuery := psql.Select("COUNT(*)").From("roles r")
	listQuery := psql.Select("r.id", "r.name", "r.created_at", "r.updated_at",
		"(SELECT COUNT(*) FROM user_roles ur WHERE ur.role_id = r.id)").From("roles r")
	if params.Search != "" {
		match := squirrel.ILike{"r.name": searchPattern(params.Search)}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.RoleSortFields, "r.", "created_at")), params)

	page := domain.Page[domain.Role]{Page: params.Page, PerPage: params.PerPage, Items: []domain.Role{}}
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
				role, err := scanRole(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *role)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.Role]{}, err
	}
	return page, nil
}

func (r *roleRepository) GrantsForUser(ctx context.Context, userID string) (domain.Grants, error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	const rolesQuery = `
        SELECT r.name FROM roles r
        JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id=$1 ORDER BY r.name`
	roles, err := scanStrings(ctx, q, rolesQuery, userID)
	if err != nil {
		return domain.Grants{}, err
	}

	const permsQuery = `
        SELECT DISTINCT p.name FROM permissions p
        JOIN role_permissions rp ON rp.permission_id = p.id
        JOIN user_roles ur ON ur.role_id = rp.role_id
        WHERE ur.user_id=$1 ORDER BY p.name`
	perms, err := scanStrings(ctx, q, permsQuery, userID)
	if err != nil {
		return domain.Grants{}, err
	}
	return domain.Grants{Roles: roles, Permissions: perms}, nil
}

func scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &role.UsersCount); err != nil {
		return nil, err
	}
	return &role, nil
}
