package service

import (
	"context"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

type ProjectService struct {
	server *server.Server
	repos  *repository.Repositories
}

func NewProjectService(s *server.Server, repos *repository.Repositories) *ProjectService {
	return &ProjectService{
		server: s,
		repos:  repos,
	}
}

// List returns one page of projects, filtered by name when given.
func (s *ProjectService) List(ctx context.Context, q *model.ListProjectsQuery) ([]model.Project, error) {
	page := q.PageSpec()

	var (
		projects []model.Project
		err      error
	)
	switch {
	case q.Name != "":
		projects, err = s.repos.Project.FindByName(ctx, q.Name, page)
	default:
		projects, err = s.repos.Project.FindAll(ctx, page)
	}
	if err != nil {
		return nil, storeError(err)
	}

	projects = nonNil(projects)
	if err := s.loadChildren(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.repos.Project.FindByID(ctx, id)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	projects := []model.Project{*project}
	if err := s.loadChildren(ctx, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// Create stores the project with every nested commit, issue and comment.
func (s *ProjectService) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	project.ID = newID(project.ID)
	createdAt := now()

	for i := range project.Commits {
		prepareCommit(&project.Commits[i])
		project.Commits[i].ProjectID = project.ID
	}
	for i := range project.Issues {
		prepareIssue(&project.Issues[i], createdAt)
		project.Issues[i].ProjectID = project.ID
	}

	if err := s.repos.Project.Create(ctx, project); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return s.Get(ctx, project.ID)
}

// Update applies the present whitelisted fields of req to an existing project.
func (s *ProjectService) Update(ctx context.Context, req *model.UpdateProjectRequest) error {
	project, err := s.repos.Project.FindByID(ctx, req.ID)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	req.Apply(project)

	if err := s.repos.Project.Update(ctx, project); err != nil {
		return sqlerr.HandleError(err)
	}
	return nil
}

// Delete removes the project with its commits and issues. A missing
// project is not an error.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	exists, err := s.repos.Project.ExistsByID(ctx, id)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if !exists {
		return nil
	}

	if err := s.repos.Project.DeleteByID(ctx, id); err != nil {
		return sqlerr.HandleError(err)
	}

	pruneUsers(ctx, s.server, "project deleted")
	return nil
}

// loadChildren fills in commits and issues (with their comments) using
// one query per collection.
func (s *ProjectService) loadChildren(ctx context.Context, projects []model.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}

	commits, err := s.repos.Commit.FindByProjectIDs(ctx, ids)
	if err != nil {
		return sqlerr.HandleError(err)
	}

	issues, err := s.repos.Issue.FindByProjectIDs(ctx, ids)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if err := attachComments(ctx, s.repos.Comment, issues); err != nil {
		return err
	}

	commitsByProject := make(map[string][]model.Commit)
	for _, c := range commits {
		commitsByProject[c.ProjectID] = append(commitsByProject[c.ProjectID], c)
	}
	issuesByProject := make(map[string][]model.Issue)
	for _, i := range issues {
		issuesByProject[i.ProjectID] = append(issuesByProject[i.ProjectID], i)
	}

	for i := range projects {
		projects[i].Commits = nonNil(commitsByProject[projects[i].ID])
		projects[i].Issues = nonNil(issuesByProject[projects[i].ID])
	}
	return nil
}
