package service

import (
	"context"
	"time"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

type CommentService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewCommentService(s *server.Server, repos *repository.Repositories) *CommentService {
	return &CommentService{
		server: s,
		repos:  repos,
	}
}

func (s *CommentService) List(ctx context.Context, q *model.ListCommentsQuery) ([]model.Comment, error) {
	page := q.PageSpec()

	var (
		comments []model.Comment
		err      error
	)
	switch {
	case q.AuthorID != "":
		comments, err = s.repos.Comment.FindByAuthorID(ctx, q.AuthorID, page)
	default:
		comments, err = s.repos.Comment.FindAll(ctx, page)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return nonNil(comments), nil
}

func (s *CommentService) Get(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.repos.Comment.FindByID(ctx, id)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	prepareComment(comment, now())

	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, sqlerr.HandleReferenceError(err, "issue_id")
	}
	return s.Get(ctx, comment.ID)
}

// Update replaces the body when present and stamps updated_at.
func (s *CommentService) Update(ctx context.Context, req *model.UpdateCommentRequest) error {
	comment, err := s.repos.Comment.FindByID(ctx, req.ID)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	req.Apply(comment, now())

	if err := s.repos.Comment.Update(ctx, comment); err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	exists, err := s.repos.Comment.ExistsByID(ctx, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if !exists {
		return nil
	}

	if err := s.repos.Comment.DeleteByID(ctx, id); err != nil {
		return sqlerr.HandleError(err)
	}

	pruneUsers(ctx, s.server, "comment deleted")
	return nil
}

func prepareComment(comment *model.Comment, createdAt time.Time) {
	comment.ID = newID(comment.ID)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = createdAt
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = comment.CreatedAt
	}
}
