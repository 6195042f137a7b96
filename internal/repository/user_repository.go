package repository

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// UserEmailConstraint is the unique constraint on users.email.
const UserEmailConstraint = "users_email_key"

// UserRepository defines persistence access for users and their role assignments.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, changes map[string]any) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// EmailTaken ignores the user with exceptID so updates can keep their own address.
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
	List(ctx context.Context, params domain.ListParams) (domain.Page[domain.User], error)
	// RoleNames returns role names keyed by user id for all ids in one query.
	RoleNames(ctx context.Context, userIDs []string) (map[string][]string, error)
	SyncRoles(ctx context.Context, userID string, roleIDs []string) error
}

type userRepository struct {
	db persistence.DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	if email, ok := changes["email"].(string); ok {
		changes["email"] = strings.ToLower(email)
	}
	update := psql.Update("users").
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

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`
	return exists(ctx, persistence.QuerierFromCtx(ctx, r.db), query, id)
}

func (r *userRepository) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if exceptID == "" {
		const query = `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`
		return exists(ctx, q, query, strings.ToLower(email))
	}
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1 AND id<>$2)`
	return exists(ctx, q, query, strings.ToLower(email), exceptID)
}

func (r *userRepository) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.User], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	countQuery := psql.Select("COUNT(*)").From("users")
	listQuery := psql.Select(userColumns).From("users")
	if params.Search != "" {
		pattern := searchPattern(params.Search)
		match := squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"email": pattern}}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.UserSortFields, "", "created_at")), params)

	page := domain.Page[domain.User]{Page: params.Page, PerPage: params.PerPage, Items: []domain.User{}}
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
				user, err := scanUser(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *user)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	return page, nil
}

func (r *userRepository) RoleNames(ctx context.Context, userIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT ur.user_id, r.name
        FROM user_roles ur JOIN roles r ON r.id = ur.role_id
        WHERE ur.user_id = ANY($1)
        ORDER BY r.name`
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID, name string
		if err := rows.Scan(&userID, &name); err != nil {
			return nil, err
		}
		result[userID] = append(result[userID], name)
	}
	return result, rows.Err()
}

func (r *userRepository) SyncRoles(ctx context.Context, userID string, roleIDs []string) error {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1`, userID); err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO user_roles (user_id, role_id)
        SELECT $1, unnest($2::uuid[])
        ON CONFLICT DO NOTHING`
	_, err := q.Exec(ctx, query, userID, roleIDs)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
