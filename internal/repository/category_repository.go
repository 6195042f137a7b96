package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// Category constraints surfaced to the service layer.
const (
	CategorySlugConstraint   = "categories_slug_key"
	CategoryParentConstraint = "categories_parent_id_fkey"
)

// CategoryRepository manages the category tree.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, id string, changes map[string]any) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Children(ctx context.Context, id string) ([]domain.Category, error)
	CountChildren(ctx context.Context, id string) (int, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	// AncestorIDs walks parent links upward from id, excluding id itself.
	AncestorIDs(ctx context.Context, id string) ([]string, error)
	List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Category], error)
}

type categoryRepository struct {
	db persistence.DB
}

// NewCategoryRepository returns a Postgres-backed implementation.
func NewCategoryRepository(db persistence.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

var categoryColumns = []string{
	"id", "name", "slug", "description", "parent_id", "is_active", "sort_order", "image", "created_at", "updated_at",
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name, slug, description, parent_id, is_active, sort_order, image)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query,
		category.Name,
		category.Slug,
		category.Description,
		category.ParentID,
		category.IsActive,
		category.SortOrder,
		category.Image,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	update := psql.Update("categories").
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

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM categories WHERE id=$1`
	cmd, err := persistence.QuerierFromCtx(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	sql, args, err := psql.Select(categoryColumns...).From("categories").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanCategory(persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...))
}

func (r *categoryRepository) Children(ctx context.Context, id string) ([]domain.Category, error) {
	sql, args, err := psql.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"parent_id": id}).
		OrderBy("sort_order ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := persistence.QuerierFromCtx(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []domain.Category{}
	for rows.Next() {
		child, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

func (r *categoryRepository) CountChildren(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM categories WHERE parent_id=$1`
	var n int
	if err := persistence.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *categoryRepository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	if exceptID == "" {
		return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug=$1)`, slug)
	}
	return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug=$1 AND id<>$2)`, slug, exceptID)
}

func (r *categoryRepository) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	const query = `
        WITH RECURSIVE ancestors(id, parent_id, depth) AS (
            SELECT id, parent_id, 0 FROM categories WHERE id=$1
            UNION ALL
            SELECT c.id, c.parent_id, a.depth + 1
            FROM categories c JOIN ancestors a ON c.id = a.parent_id
            WHERE a.depth < 64
        )
        SELECT id::text FROM ancestors WHERE depth > 0 ORDER BY depth`
	return scanStrings(ctx, persistence.QuerierFromCtx(ctx, r.db), query, id)
}

func (r *categoryRepository) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Category], error) {
	q := persistence.QuerierFromCtx(ctx, r.db)
	countQuery := psql.Select("COUNT(*)").From("categories")
	listQuery := psql.Select(categoryColumns...).From("categories")
	if params.Search != "" {
		pattern := searchPattern(params.Search)
		match := squirrel.Or{squirrel.ILike{"name": pattern}, squirrel.ILike{"description": pattern}}
		countQuery = countQuery.Where(match)
		listQuery = listQuery.Where(match)
	}
	listQuery = paginate(listQuery.OrderBy(orderBy(params, domain.CategorySortFields, "", "sort_order"), "name ASC"), params)

	page := domain.Page[domain.Category]{Page: params.Page, PerPage: params.PerPage, Items: []domain.Category{}}
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
				category, err := scanCategory(rows)
				if err != nil {
					return err
				}
				page.Items = append(page.Items, *category)
			}
			return rows.Err()
		},
	)
	if err != nil {
		return domain.Page[domain.Category]{}, err
	}
	return page, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.ParentID,
		&c.IsActive,
		&c.SortOrder,
		&c.Image,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
