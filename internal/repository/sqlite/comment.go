package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectComments = `
	SELECT m.id, m.issue_id, m.body, m.created_at, m.updated_at,
	       u.id, u.username, u.name, u.avatar_url, u.web_url
	FROM comments m
	LEFT JOIN users u ON u.id = m.author_id`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func scanComment(row scanner) (model.Comment, error) {
	var (
		c                    model.Comment
		issueID              sql.NullString
		createdAt, updatedAt string
		u                    nullUser
	)
	dest := append([]any{&c.ID, &issueID, &c.Body, &createdAt, &updatedAt}, u.dest()...)
	if err := row.Scan(dest...); err != nil {
		return c, err
	}

	var err error
	c.IssueID = issueID.String
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return c, err
	}
	c.Author = u.user()
	return c, nil
}

func (r *CommentRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Comment, error) {
	return r.find(ctx, "", nil, page)
}

func (r *CommentRepository) FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Comment, error) {
	return r.find(ctx, "m.author_id = ?", []any{authorID}, page)
}

func (r *CommentRepository) find(ctx context.Context, where string, args []any, page model.PageSpec) ([]model.Comment, error) {
	query, args, err := pageQuery(selectComments, where, "m", repository.CommentSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.db, repository.TableComments, query, args, scanComment)
}

func (r *CommentRepository) FindByIssueIDs(ctx context.Context, issueIDs []string) ([]model.Comment, error) {
	if len(issueIDs) == 0 {
		return []model.Comment{}, nil
	}
	in, args := inClause(issueIDs)
	return list(ctx, r.db, repository.TableComments,
		selectComments+` WHERE m.issue_id IN (`+in+`) ORDER BY m.created_at, m.id`, args, scanComment)
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	return findOne(ctx, r.db, repository.TableComments, selectComments+` WHERE m.id = ?`, id, scanComment)
}

func (r *CommentRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, repository.TableComments, id)
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertComment(ctx, tx, comment)
	})
}

func insertComment(ctx context.Context, q querier, comment *model.Comment) error {
	if comment.Author != nil {
		if err := upsertUser(ctx, q, comment.Author); err != nil {
			return err
		}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO comments (id, issue_id, body, created_at, updated_at, author_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, nullable(comment.IssueID), comment.Body,
		formatTime(comment.CreatedAt), formatTime(comment.UpdatedAt), authorID(comment.Author))
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return updateOne(ctx, r.db, repository.TableComments,
		`UPDATE comments SET body = ?, updated_at = ? WHERE id = ?`,
		comment.Body, formatTime(comment.UpdatedAt), comment.ID)
}

func (r *CommentRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, repository.TableComments, id)
}
