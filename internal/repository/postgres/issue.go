package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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
	pool *pgxpool.Pool
}

func NewIssueRepository(pool *pgxpool.Pool) *IssueRepository {
	return &IssueRepository{pool: pool}
}

func scanIssue(row pgx.CollectableRow) (model.Issue, error) {
	var (
		i                                    model.Issue
		projectID                            *string
		uID, uUsername, uName, uAvatar, uWeb *string
	)
	err := row.Scan(&i.ID, &projectID, &i.Title, &i.Description, &i.State, &i.CreatedAt,
		&i.UpdatedAt, &i.ClosedAt, &i.Labels, &i.Votes,
		&uID, &uUsername, &uName, &uAvatar, &uWeb)
	if err != nil {
		return i, err
	}

	i.ProjectID = deref(projectID)
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	if i.ClosedAt != nil {
		closedAt := i.ClosedAt.UTC()
		i.ClosedAt = &closedAt
	}
	i.Author = author(uID, uUsername, uName, uAvatar, uWeb)
	return i, nil
}

func (r *IssueRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "", nil, page)
}

func (r *IssueRepository) FindByState(ctx context.Context, state string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.state = @state", pgx.NamedArgs{"state": state}, page)
}

func (r *IssueRepository) FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.author_id = @author_id", pgx.NamedArgs{"author_id": authorID}, page)
}

func (r *IssueRepository) FindByStateAndAuthorID(ctx context.Context, state, authorID string, page model.PageSpec) ([]model.Issue, error) {
	return r.find(ctx, "i.state = @state AND i.author_id = @author_id",
		pgx.NamedArgs{"state": state, "author_id": authorID}, page)
}

func (r *IssueRepository) find(ctx context.Context, where string, args pgx.NamedArgs, page model.PageSpec) ([]model.Issue, error) {
	sql, args, err := pageQuery(selectIssues, where, "i", repository.IssueSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.pool, repository.TableIssues, sql, args, scanIssue)
}

func (r *IssueRepository) FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Issue, error) {
	if len(projectIDs) == 0 {
		return []model.Issue{}, nil
	}
	return list(ctx, r.pool, repository.TableIssues,
		selectIssues+` WHERE i.project_id = ANY(@project_ids) ORDER BY i.id`,
		pgx.NamedArgs{"project_ids": projectIDs}, scanIssue)
}

func (r *IssueRepository) FindByID(ctx context.Context, id string) (*model.Issue, error) {
	return findOne(ctx, r.pool, repository.TableIssues, selectIssues+` WHERE i.id = @id`, id, scanIssue)
}

func (r *IssueRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.pool, repository.TableIssues, id)
}

func (r *IssueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertIssue(ctx, tx, issue)
	})
}

// insertIssue stores the issue, its author and its comments on q.
func insertIssue(ctx context.Context, q querier, issue *model.Issue) error {
	if issue.Author != nil {
		if err := upsertUser(ctx, q, issue.Author); err != nil {
			return err
		}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO issues (id, project_id, title, description, state, created_at,
		                    updated_at, closed_at, labels, votes, author_id)
		VALUES (@id, @project_id, @title, @description, @state, @created_at,
		        @updated_at, @closed_at, @labels, @votes, @author_id)`,
		issueArgs(issue))
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
	return updateOne(ctx, r.pool, repository.TableIssues, `
		UPDATE issues SET
			title = @title,
			description = @description,
			state = @state,
			updated_at = @updated_at,
			closed_at = @closed_at,
			labels = @labels,
			votes = @votes
		WHERE id = @id`,
		issueArgs(issue))
}

func (r *IssueRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, repository.TableIssues, id)
}

func issueArgs(issue *model.Issue) pgx.NamedArgs {
	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}

	return pgx.NamedArgs{
		"id":          issue.ID,
		"project_id":  nullable(issue.ProjectID),
		"title":       issue.Title,
		"description": issue.Description,
		"state":       issue.State,
		"created_at":  issue.CreatedAt,
		"updated_at":  issue.UpdatedAt,
		"closed_at":   issue.ClosedAt,
		"labels":      labels,
		"votes":       issue.Votes,
		"author_id":   authorID(issue.Author),
	}
}
