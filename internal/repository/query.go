package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern builds an ILIKE substring pattern with wildcards in term escaped.
func searchPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}

// orderBy renders "<prefix><field> <dir>", falling back to fallback for fields outside allowed.
func orderBy(p domain.ListParams, allowed []string, prefix, fallback string) string {
	field := fallback
	if slices.Contains(allowed, p.SortBy) {
		field = p.SortBy
	}
	dir := "DESC"
	if p.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	return prefix + field + " " + dir
}

func paginate(b squirrel.SelectBuilder, p domain.ListParams) squirrel.SelectBuilder {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 15
	}
	return b.Limit(uint64(perPage)).Offset(uint64(p.Offset()))
}

func countRows(ctx context.Context, q persistence.Querier, b squirrel.SelectBuilder) (int, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// fetchPage runs the count and the page query. Outside a transaction they run
// concurrently on separate pool connections.
func fetchPage(ctx context.Context, count, rows func(context.Context) error) error {
	if persistence.InTx(ctx) {
		if err := count(ctx); err != nil {
			return err
		}
		return rows(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return count(gctx) })
	g.Go(func() error { return rows(gctx) })
	return g.Wait()
}

func exists(ctx context.Context, q persistence.Querier, sql string, args ...any) (bool, error) {
	var found bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func scanStrings(ctx context.Context, q persistence.Querier, sql string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// scanNameIDs reads (name, id) rows into a name → id map.
func scanNameIDs(ctx context.Context, q persistence.Querier, sql string, args ...any) (map[string]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		result[name] = id
	}
	return result, rows.Err()
}

func execAffecting(ctx context.Context, q persistence.Querier, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
