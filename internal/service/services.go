package service

import (
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
)

type Services struct {
	Auth    *AuthService
	Project *ProjectService
	Commit  *CommitService
	Issue   *IssueService
	Comment *CommentService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Auth:    NewAuthService(s),
		Project: NewProjectService(s, repos),
		Commit:  NewCommitService(s, repos),
		Issue:   NewIssueService(s, repos),
		Comment: NewCommentService(s, repos),
	}
}
