package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectCommits = `
	SELECT c.id, c.project_id, c.title, c.message, c.author_name,
	       c.author_email, c.authored_date, c.web_url
	FROM commits c`

type CommitRepository struct {
	db *sql.DB
}

func NewCommitRepository(db *sql.DB) *CommitRepository {
	return &CommitRepository{db: db}
}

func scanCommit(row scanner) (model.Commit, error) {
	var (
		c            model.Commit
		projectID    sql.NullString
		authoredDate string
	)
	err := row.Scan(&c.ID, &projectID, &c.Title, &c.Message, &c.AuthorName,
		&c.AuthorEmail, &authoredDate, &c.WebURL)
	if err != nil {
		return c, err
	}

	c.ProjectID = projectID.String
	c.AuthoredDate, err = parseTime(authoredDate)
	return c, err
}

func (r *CommitRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Commit, error) {
	return r.find(ctx, "", nil, page)
}

func (r *CommitRepository) FindByAuthorName(ctx context.Context, authorName string, page model.PageSpec) ([]model.Commit, error) {
	return r.find(ctx, "c.author_name = ?", []any{authorName}, page)
}

func (r *CommitRepository) find(ctx context.Context, where string, args []any, page model.PageSpec) ([]model.Commit, error) {
	query, args, err := pageQuery(selectCommits, where, "c", repository.CommitSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.db, repository.TableCommits, query, args, scanCommit)
}

func (r *CommitRepository) FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Commit, error) {
	if len(projectIDs) == 0 {
		return []model.Commit{}, nil
	}
	in, args := inClause(projectIDs)
	return list(ctx, r.db, repository.TableCommits,
		selectCommits+` WHERE c.project_id IN (`+in+`) ORDER BY c.id`, args, scanCommit)
}

func (r *CommitRepository) FindByID(ctx context.Context, id string) (*model.Commit, error) {
	return findOne(ctx, r.db, repository.TableCommits, selectCommits+` WHERE c.id = ?`, id, scanCommit)
}

func (r *CommitRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, repository.TableCommits, id)
}

func (r *CommitRepository) Create(ctx context.Context, commit *model.Commit) error {
	return insertCommit(ctx, r.db, commit)
}

func insertCommit(ctx context.Context, q querier, commit *model.Commit) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO commits (id, project_id, title, message, author_name, author_email, authored_date, web_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		commit.ID, nullable(commit.ProjectID), commit.Title, commit.Message, commit.AuthorName,
		commit.AuthorEmail, formatTime(commit.AuthoredDate), commit.WebURL)
	if err != nil {
		return fmt.Errorf("failed to insert commit: %w", err)
	}
	return nil
}

func (r *CommitRepository) Update(ctx context.Context, commit *model.Commit) error {
	return updateOne(ctx, r.db, repository.TableCommits, `
		UPDATE commits SET
			title = ?,
			message = ?,
			author_name = ?,
			author_email = ?,
			authored_date = ?,
			web_url = ?
		WHERE id = ?`,
		commit.Title, commit.Message, commit.AuthorName, commit.AuthorEmail,
		formatTime(commit.AuthoredDate), commit.WebURL, commit.ID)
}

func (r *CommitRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, repository.TableCommits, id)
}
