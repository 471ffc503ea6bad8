package service

import (
	"context"
	"time"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

type IssueService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewIssueService(s *server.Server, repos *repository.Repositories) *IssueService {
	return &IssueService{
		server: s,
		repos:  repos,
	}
}

// List dispatches on the state and authorId filters; each combination
// has its own finder.
func (s *IssueService) List(ctx context.Context, q *model.ListIssuesQuery) ([]model.Issue, error) {
	page := q.PageSpec()

	var (
		issues []model.Issue
		err    error
	)
	switch {
	case q.State != "" && q.AuthorID != "":
		issues, err = s.repos.Issue.FindByStateAndAuthorID(ctx, q.State, q.AuthorID, page)
	case q.AuthorID != "":
		issues, err = s.repos.Issue.FindByAuthorID(ctx, q.AuthorID, page)
	case q.State != "":
		issues, err = s.repos.Issue.FindByState(ctx, q.State, page)
	default:
		issues, err = s.repos.Issue.FindAll(ctx, page)
	}
	if err != nil {
		return nil, storeError(err)
	}

	issues = nonNil(issues)
	if err := attachComments(ctx, s.repos.Comment, issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *IssueService) Get(ctx context.Context, id string) (*model.Issue, error) {
	issue, err := s.repos.Issue.FindByID(ctx, id)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	issues := []model.Issue{*issue}
	if err := attachComments(ctx, s.repos.Comment, issues); err != nil {
		return nil, err
	}
	return &issues[0], nil
}

// Comments returns every comment of the issue, oldest first.
func (s *IssueService) Comments(ctx context.Context, id string) ([]model.Comment, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return issue.Comments, nil
}

// Create stores the issue together with its nested comments.
func (s *IssueService) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	prepareIssue(issue, now())

	if err := s.repos.Issue.Create(ctx, issue); err != nil {
		return nil, sqlerr.HandleReferenceError(err, "project_id")
	}
	return s.Get(ctx, issue.ID)
}

func (s *IssueService) Update(ctx context.Context, req *model.UpdateIssueRequest) error {
	issue, err := s.repos.Issue.FindByID(ctx, req.ID)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	req.Apply(issue)

	if err := s.repos.Issue.Update(ctx, issue); err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// Delete removes the issue and its comments if it exists.
func (s *IssueService) Delete(ctx context.Context, id string) error {
	exists, err := s.repos.Issue.ExistsByID(ctx, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if !exists {
		return nil
	}

	if err := s.repos.Issue.DeleteByID(ctx, id); err != nil {
		return sqlerr.HandleError(err)
	}

	pruneUsers(ctx, s.server, "issue deleted")
	return nil
}

// prepareIssue assigns identifiers and default timestamps to an issue
// and its comments before they are stored.
func prepareIssue(issue *model.Issue, createdAt time.Time) {
	issue.ID = newID(issue.ID)
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = createdAt
	}
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = issue.CreatedAt
	}
	issue.Labels = nonNil(issue.Labels)

	for i := range issue.Comments {
		prepareComment(&issue.Comments[i], createdAt)
		issue.Comments[i].IssueID = issue.ID
	}
}

// attachComments loads the comments of every issue in one query.
func attachComments(ctx context.Context, comments repository.CommentRepository, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	ids := make([]string, len(issues))
	for i := range issues {
		ids[i] = issues[i].ID
	}

	found, err := comments.FindByIssueIDs(ctx, ids)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	byIssue := make(map[string][]model.Comment)
	for _, c := range found {
		byIssue[c.IssueID] = append(byIssue[c.IssueID], c)
	}

	for i := range issues {
		issues[i].Comments = nonNil(byIssue[issues[i].ID])
		issues[i].Labels = nonNil(issues[i].Labels)
	}
	return nil
}
