// Package postgres implements the repository interfaces on PostgreSQL
// through a pgx connection pool.
//
// Every statement uses pgx.NamedArgs; the only text spliced into SQL is
// an ORDER BY expression taken from the repository sort whitelists.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewRepositories builds every repository on top of pool.
func NewRepositories(pool *pgxpool.Pool) *repository.Repositories {
	return &repository.Repositories{
		Project: NewProjectRepository(pool),
		Commit:  NewCommitRepository(pool),
		Issue:   NewIssueRepository(pool),
		Comment: NewCommentRepository(pool),
		User:    NewUserRepository(pool),
	}
}

// pageQuery appends ordering and paging to a SELECT. Callers' args gain
// the "limit" and "offset" names.
func pageQuery(selectSQL, where, alias string, columns repository.SortColumns, args pgx.NamedArgs, page model.PageSpec) (string, pgx.NamedArgs, error) {
	orderBy, err := columns.OrderBy(alias, page.Sort)
	if err != nil {
		return "", nil, err
	}

	if args == nil {
		args = pgx.NamedArgs{}
	}
	args["limit"] = page.Size
	args["offset"] = page.Offset()

	sql := selectSQL
	if where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY " + orderBy + " LIMIT @limit OFFSET @offset"

	return sql, args, nil
}

func list[T any](ctx context.Context, q querier, table, sql string, args pgx.NamedArgs, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to collect rows from table:%s: %w", table, err)
	}

	return items, nil
}

func findOne[T any](ctx context.Context, q querier, table, sql, id string, scan pgx.RowToFunc[T]) (*T, error) {
	rows, err := q.Query(ctx, sql, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	item, err := pgx.CollectOneRow(rows, scan)
	if err != nil {
		return nil, repository.NotFound(table, err)
	}

	return &item, nil
}

func existsByID(ctx context.Context, q querier, table, id string) (bool, error) {
	var exists bool
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = @id)`, table)
	if err := q.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

func deleteByID(ctx context.Context, q querier, table, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id = @id`, table)
	if _, err := q.Exec(ctx, sql, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// updateOne runs an UPDATE and reports a missing row as NotFound.
func updateOne(ctx context.Context, q querier, table, sql string, args pgx.NamedArgs) error {
	tag, err := q.Exec(ctx, sql, args)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.NotFound(table, pgx.ErrNoRows)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
