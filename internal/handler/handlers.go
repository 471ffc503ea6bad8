package handler

import (
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

// Handlers groups every HTTP handler so the router receives a single value.
type Handlers struct {
	Health  *HealthHandler
	Project *ProjectHandler
	Commit  *CommitHandler
	Issue   *IssueHandler
	Comment *CommentHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Project: NewProjectHandler(s, services.Project),
		Commit:  NewCommitHandler(s, services.Commit),
		Issue:   NewIssueHandler(s, services.Issue),
		Comment: NewCommentHandler(s, services.Comment),
	}
}
