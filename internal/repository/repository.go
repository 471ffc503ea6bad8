// Package repository handles all interactions with the database.
//
// It declares the store capabilities the service layer depends on.
// The postgres and sqlite subpackages implement them with raw,
// parameterized SQL; nothing outside those packages writes SQL.
//
// Finders that return a single row wrap the driver's ErrNoRows with a
// "table:<name>:" prefix (see NotFound) so that sqlerr.HandleError can
// name the missing entity.
package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
)

// Table names, also used as the NotFound prefix.
const (
	TableProjects = "projects"
	TableCommits  = "commits"
	TableIssues   = "issues"
	TableComments = "comments"
	TableUsers    = "users"
)

// NotFound wraps a driver "no rows" error so that it names the table.
func NotFound(table string, err error) error {
	return fmt.Errorf("table:%s: %w", table, err)
}

// ProjectRepository persists projects. Finders return projects without
// their commits and issues; those are loaded through the child repositories.
type ProjectRepository interface {
	FindAll(ctx context.Context, page model.PageSpec) ([]model.Project, error)
	FindByName(ctx context.Context, name string, page model.PageSpec) ([]model.Project, error)
	FindByID(ctx context.Context, id string) (*model.Project, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	// Create inserts the project together with its commits, issues, issue
	// comments and authors in a single transaction.
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	DeleteByID(ctx context.Context, id string) error
}

type CommitRepository interface {
	FindAll(ctx context.Context, page model.PageSpec) ([]model.Commit, error)
	FindByAuthorName(ctx context.Context, authorName string, page model.PageSpec) ([]model.Commit, error)
	FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Commit, error)
	FindByID(ctx context.Context, id string) (*model.Commit, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, commit *model.Commit) error
	Update(ctx context.Context, commit *model.Commit) error
	DeleteByID(ctx context.Context, id string) error
}

// IssueRepository persists issues. Finders fill in the author but not the
// comments.
type IssueRepository interface {
	FindAll(ctx context.Context, page model.PageSpec) ([]model.Issue, error)
	FindByState(ctx context.Context, state string, page model.PageSpec) ([]model.Issue, error)
	FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Issue, error)
	FindByStateAndAuthorID(ctx context.Context, state, authorID string, page model.PageSpec) ([]model.Issue, error)
	FindByProjectIDs(ctx context.Context, projectIDs []string) ([]model.Issue, error)
	FindByID(ctx context.Context, id string) (*model.Issue, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	// Create inserts the issue with its comments and authors in a single transaction.
	Create(ctx context.Context, issue *model.Issue) error
	Update(ctx context.Context, issue *model.Issue) error
	DeleteByID(ctx context.Context, id string) error
}

type CommentRepository interface {
	FindAll(ctx context.Context, page model.PageSpec) ([]model.Comment, error)
	FindByAuthorID(ctx context.Context, authorID string, page model.PageSpec) ([]model.Comment, error)
	FindByIssueIDs(ctx context.Context, issueIDs []string) ([]model.Comment, error)
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, comment *model.Comment) error
	Update(ctx context.Context, comment *model.Comment) error
	DeleteByID(ctx context.Context, id string) error
}

type UserRepository interface {
	// DeleteOrphans removes users no issue or comment refers to.
	DeleteOrphans(ctx context.Context) (int64, error)
}
