// Package sqlite implements the repository interfaces on an embedded
// SQLite database (modernc.org/sqlite, no cgo).
//
// Timestamps are stored as fixed-width UTC text so that lexical order
// matches chronological order, and labels as a JSON array.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// NewRepositories builds every repository on top of db.
func NewRepositories(db *sql.DB) *repository.Repositories {
	return &repository.Repositories{
		Project: NewProjectRepository(db),
		Commit:  NewCommitRepository(db),
		Issue:   NewIssueRepository(db),
		Comment: NewCommentRepository(db),
		User:    NewUserRepository(db),
	}
}

func pageQuery(selectSQL, where, alias string, columns repository.SortColumns, args []any, page model.PageSpec) (string, []any, error) {
	orderBy, err := columns.OrderBy(alias, page.Sort)
	if err != nil {
		return "", nil, err
	}

	query := selectSQL
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + orderBy + " LIMIT ? OFFSET ?"

	return query, append(args, page.Size, page.Offset()), nil
}

// list reads every row before returning; the database has a single
// connection, so rows must not stay open across queries.
func list[T any](ctx context.Context, q querier, table, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func findOne[T any](ctx context.Context, q querier, table, query, id string, scan func(scanner) (T, error)) (*T, error) {
	item, err := scan(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, repository.NotFound(table, err)
	}
	return &item, nil
}

func existsByID(ctx context.Context, q querier, table, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = ?)`, table)
	if err := q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

func deleteByID(ctx context.Context, q querier, table, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)
	if _, err := q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

func updateOne(ctx context.Context, q querier, table, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if n == 0 {
		return repository.NotFound(table, sql.ErrNoRows)
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back when it fails.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// inClause returns "?, ?, ?" and the matching args.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by hand may use plain RFC 3339.
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func encodeLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode labels: %w", err)
	}
	return string(b), nil
}

func decodeLabels(s string) ([]string, error) {
	labels := []string{}
	if s == "" {
		return labels, nil
	}
	if err := json.Unmarshal([]byte(s), &labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	return labels, nil
}
