package service

import (
	"context"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

type CommitService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewCommitService(s *server.Server, repos *repository.Repositories) *CommitService {
	return &CommitService{
		server: s,
		repos:  repos,
	}
}

func (s *CommitService) List(ctx context.Context, q *model.ListCommitsQuery) ([]model.Commit, error) {
	page := q.PageSpec()

	var (
		commits []model.Commit
		err     error
	)
	switch {
	case q.AuthorName != "":
		commits, err = s.repos.Commit.FindByAuthorName(ctx, q.AuthorName, page)
	default:
		commits, err = s.repos.Commit.FindAll(ctx, page)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return nonNil(commits), nil
}

func (s *CommitService) Get(ctx context.Context, id string) (*model.Commit, error) {
	commit, err := s.repos.Commit.FindByID(ctx, id)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return commit, nil
}

func (s *CommitService) Create(ctx context.Context, commit *model.Commit) (*model.Commit, error) {
	prepareCommit(commit)

	if err := s.repos.Commit.Create(ctx, commit); err != nil {
		return nil, sqlerr.HandleReferenceError(err, "project_id")
	}
	return s.Get(ctx, commit.ID)
}

func (s *CommitService) Update(ctx context.Context, req *model.UpdateCommitRequest) error {
	commit, err := s.repos.Commit.FindByID(ctx, req.ID)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	req.Apply(commit)

	if err := s.repos.Commit.Update(ctx, commit); err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// Delete removes the commit if it exists. Commits carry no user
// reference, so no prune is scheduled.
func (s *CommitService) Delete(ctx context.Context, id string) error {
	exists, err := s.repos.Commit.ExistsByID(ctx, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if !exists {
		return nil
	}

	if err := s.repos.Commit.DeleteByID(ctx, id); err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

func prepareCommit(commit *model.Commit) {
	commit.ID = newID(commit.ID)
	commit.AuthoredDate = commit.AuthoredDate.UTC()
}
