package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectIssues = `
	SELECT i.id, i.project_id, i.title, i.description, i.state, i.created_at,
	       i.updated_at, i.closed_at, i.labels, i.votes,
	       u.id, u.username, u.name, u.avatar_url, u.web_url
	FROM issues i
	LEFT JOIN users u ON u.id = i.author_id`

type IssueRepository struct {
	db *sql.DB
}

func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func scanIssue(row scanner) (model.Issue, error) {
	var (
		i                    model.Issue
		projectID, closedAt  sql.NullString
		createdAt, updatedAt string
		labels               string
		u                    nullUser
	)
	dest := append([]any{&i.ID, &projectID, &i.Title, &i.Description, &i.State, &createdAt,
		&updatedAt, &closedAt, &labels, &i.Votes}, u.dest()...)
	if err := row.Scan(dest...); err != nil {
		return i, err
	}

	var err error
	i.ProjectID = projectID.String
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return i, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return i, err
	}
	if i.ClosedAt, err = parseNullTime(closedAt); err != nil {
		return i, err
	}
	if i.Labels, err = decodeLabels(labels); err != nil {
		return i, err
	}
	i.Author = u.user()
	return i, nil
}

func (r *IssueRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "", nil, page)
}

func (r *IssueRepository) FindByState(ctx context.Context, state string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.state = ?", []any{state}, page)
}

func (r *IssueRepository) FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.author_id = ?", []any{authorID}, page)
}

func (r *IssueRepository) FindByStateAndAuthorID(ctx context.Context, state, authorID string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.state = ? AND i.author_id = ?", []any{state, authorID}, page)
}

func (r *IssueRepository) find(ctx context.Context, where string, args []any, page model.PageSpec) ([]model.Issue, error) {
	query, args, err := pageQuery(selectIssues, where, "i", repository.IssueSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.db, repository.TableIssues, query, args, scanIssue)
}

func (r *IssueRepository) FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Issue, error) {
	if len(projectIDs) == 0 {
		return []model.Issue{}, nil
	}
	in, args := inClause(projectIDs)
	return list(ctx, r.db, repository.TableIssues,
		selectIssues+` WHERE i.project_id IN (`+in+`) ORDER BY i.id`, args, scanIssue)
}

func (r *IssueRepository) FindByID(ctx context.Context, id string) (*model.Issue, error) {
	return findOne(ctx, r.db, repository.TableIssues, selectIssues+` WHERE i.id = ?`, id, scanIssue)
}

func (r *IssueRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, repository.TableIssues, id)
}

func (r *IssueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertIssue(ctx, tx, issue)
	})
}

func insertIssue(ctx context.Context, q querier, issue *model.Issue) error {
	if issue.Author != nil {
		if err := upsertUser(ctx, q, issue.Author); err != nil {
			return err
		}
	}

	labels, err := encodeLabels(issue.Labels)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO issues (id, project_id, title, description, state, created_at,
		                    updated_at, closed_at, labels, votes, author_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, nullable(issue.ProjectID), issue.Title, issue.Description, issue.State,
		formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt), formatNullTime(issue.ClosedAt),
		labels, issue.Votes, authorID(issue.Author))
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}

	for i := range issue.Comments {
		if err := insertComment(ctx, q, &issue.Comments[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *IssueRepository) Update(ctx context.Context, issue *model.Issue) error {
	labels, err := encodeLabels(issue.Labels)
	if err != nil {
		return err
	}

	return updateOne(ctx, r.db, repository.TableIssues, `
		UPDATE issues SET
			title = ?,
			description = ?,
			state = ?,
			updated_at = ?,
			closed_at = ?,
			labels = ?,
			votes = ?
		WHERE id = ?`,
		issue.Title, issue.Description, issue.State, formatTime(issue.UpdatedAt),
		formatNullTime(issue.ClosedAt), labels, issue.Votes, issue.ID)
}

func (r *IssueRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, repository.TableIssues, id)
}
