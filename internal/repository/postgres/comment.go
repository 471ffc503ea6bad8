package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectComments = `
	SELECT m.id, m.issue_id, m.body, m.created_at, m.updated_at,
	       u.id, u.username, u.name, u.avatar_url, u.web_url
	FROM comments m
	LEFT JOIN users u ON u.id = m.author_id`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.CollectableRow) (model.Comment, error) {
	var (
		c                                    model.Comment
		issueID                              *string
		uID, uUsername, uName, uAvatar, uWeb *string
	)
	err := row.Scan(&c.ID, &issueID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
		&uID, &uUsername, &uName, &uAvatar, &uWeb)
	if err != nil {
		return c, err
	}

	c.IssueID = deref(issueID)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.Author = author(uID, uUsername, uName, uAvatar, uWeb)
	return c, nil
}

func (r *CommentRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Comment, error) {
	return r.find(ctx, "", nil, page)
}

func (r *CommentRepository) FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Comment, error) {
	return r.find(ctx, "m.author_id = @author_id", pgx.NamedArgs{"author_id": authorID}, page)
}

func (r *CommentRepository) find(ctx context.Context, where string, args pgx.NamedArgs, page model.PageSpec) ([]model.Comment, error) {
	sql, args, err := pageQuery(selectComments, where, "m", repository.CommentSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.pool, repository.TableComments, sql, args, scanComment)
}

func (r *CommentRepository) FindByIssueIDs(ctx context.Context, issueIDs []string) ([]model.Comment, error) {
	if len(issueIDs) == 0 {
		return []model.Comment{}, nil
	}
	return list(ctx, r.pool, repository.TableComments,
		selectComments+` WHERE m.issue_id = ANY(@issue_ids) ORDER BY m.created_at, m.id`,
		pgx.NamedArgs{"issue_ids": issueIDs}, scanComment)
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return findOne(ctx, r.pool, repository.TableComments, selectComments+` WHERE m.id = @id`, id, scanComment)
}

func (r *CommentRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.pool, repository.TableComments, id)
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertComment(ctx, tx, comment)
	})
}

func insertComment(ctx context.Context, q querier, comment *model.Comment) error {
	if comment.Author != nil {
		if err := upsertUser(ctx, q, comment.Author); err != nil {
			return err
		}
	}

	_, err := q.Exec(ctx, `
		INSERT INTO comments (id, issue_id, body, created_at, updated_at, author_id)
		VALUES (@id, @issue_id, @body, @created_at, @updated_at, @author_id)`,
		pgx.NamedArgs{
			"id":         comment.ID,
			"issue_id":   nullable(comment.IssueID),
			"body":       comment.Body,
			"created_at": comment.CreatedAt,
			"updated_at": comment.UpdatedAt,
			"author_id":  authorID(comment.Author),
		})
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return updateOne(ctx, r.pool, repository.TableComments, `
		UPDATE comments SET body = @body, updated_at = @updated_at
		WHERE id = @id`,
		pgx.NamedArgs{
			"id":         comment.ID,
			"body":       comment.Body,
			"updated_at": comment.UpdatedAt,
		})
}

func (r *CommentRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, repository.TableComments, id)
}
