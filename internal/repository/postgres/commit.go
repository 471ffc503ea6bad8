package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectCommits = `
	SELECT c.id, c.project_id, c.title, c.message, c.author_name,
	       c.author_email, c.authored_date, c.web_url
	FROM commits c`

type CommitRepository struct {
	pool *pgxpool.Pool
}

func NewCommitRepository(pool *pgxpool.Pool) *CommitRepository {
	return &CommitRepository{pool: pool}
}

func scanCommit(row pgx.CollectableRow) (model.Commit, error) {
	var (
		c         model.Commit
		projectID *string
	)
	err := row.Scan(&c.ID, &projectID, &c.Title, &c.Message, &c.AuthorName,
		&c.AuthorEmail, &c.AuthoredDate, &c.WebURL)
	c.ProjectID = deref(projectID)
	c.AuthoredDate = c.AuthoredDate.UTC()
	return c, err
}

func (r *CommitRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Commit, error) {
	return r.find(ctx, "", nil, page)
}

func (r *CommitRepository) FindByAuthorName(ctx context.Context, authorName string, page model.PageSpec) ([]model.Commit, error) {
	return r.find(ctx, "c.author_name = @author_name", pgx.NamedArgs{"author_name": authorName}, page)
}

func (r *CommitRepository) find(ctx context.Context, where string, args pgx.NamedArgs, page model.PageSpec) ([]model.Commit, error) {
	sql, args, err := pageQuery(selectCommits, where, "c", repository.CommitSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.pool, repository.TableCommits, sql, args, scanCommit)
}

func (r *CommitRepository) FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Commit, error) {
	if len(projectIDs) == 0 {
		return []model.Commit{}, nil
	}
	return list(ctx, r.pool, repository.TableCommits,
		selectCommits+` WHERE c.project_id = ANY(@project_ids) ORDER BY c.id`,
		pgx.NamedArgs{"project_ids": projectIDs}, scanCommit)
}

func (r *CommitRepository) FindByID(ctx context.Context, id string) (*model.Commit, error) {
	return findOne(ctx, r.pool, repository.TableCommits, selectCommits+` WHERE c.id = @id`, id, scanCommit)
}

func (r *CommitRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.pool, repository.TableCommits, id)
}

func (r *CommitRepository) Create(ctx context.Context, commit *model.Commit) error {
	return insertCommit(ctx, r.pool, commit)
}

func insertCommit(ctx context.Context, q querier, commit *model.Commit) error {
	_, err := q.Exec(ctx, `
		INSERT INTO commits (id, project_id, title, message, author_name, author_email, authored_date, web_url)
		VALUES (@id, @project_id, @title, @message, @author_name, @author_email, @authored_date, @web_url)`,
		commitArgs(commit))
	if err != nil {
		return fmt.Errorf("failed to insert commit: %w", err)
	}
	return nil
}

func (r *CommitRepository) Update(ctx context.Context, commit *model.Commit) error {
	return updateOne(ctx, r.pool, repository.TableCommits, `
		UPDATE commits SET
			title = @title,
			message = @message,
			author_name = @author_name,
			author_email = @author_email,
			authored_date = @authored_date,
			web_url = @web_url
		WHERE id = @id`,
		commitArgs(commit))
}

func (r *CommitRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, repository.TableCommits, id)
}

func commitArgs(commit *model.Commit) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":            commit.ID,
		"project_id":    nullable(commit.ProjectID),
		"title":         commit.Title,
		"message":       commit.Message,
		"author_name":   commit.AuthorName,
		"author_email":  commit.AuthorEmail,
		"authored_date": commit.AuthoredDate,
		"web_url":       commit.WebURL,
	}
}
