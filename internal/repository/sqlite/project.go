package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectProjects = `SELECT p.id, p.name, p.web_url FROM projects p`

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.WebURL)
	return p, err
}

func (r *ProjectRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Project, error) {
	return r.find(ctx, "", nil, page)
}

func (r *ProjectRepository) FindByName(ctx context.Context, name string, page model.PageSpec) ([]model.Project, error) {
	return r.find(ctx, "p.name = ?", []any{name}, page)
}

func (r *ProjectRepository) find(ctx context.Context, where string, args []any, page model.PageSpec) ([]model.Project, error) {
	query, args, err := pageQuery(selectProjects, where, "p", repository.ProjectSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.db, repository.TableProjects, query, args, scanProject)
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	return findOne(ctx, r.db, repository.TableProjects, selectProjects+` WHERE p.id = ?`, id, scanProject)
}

func (r *ProjectRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, repository.TableProjects, id)
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, web_url) VALUES (?, ?, ?)`,
			project.ID, project.Name, project.WebURL)
		if err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}

		for i := range project.Commits {
			if err := insertCommit(ctx, tx, &project.Commits[i]); err != nil {
				return err
			}
		}

		for i := range project.Issues {
			if err := insertIssue(ctx, tx, &project.Issues[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	return updateOne(ctx, r.db, repository.TableProjects,
		`UPDATE projects SET name = ?, web_url = ? WHERE id = ?`,
		project.Name, project.WebURL, project.ID)
}

func (r *ProjectRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, repository.TableProjects, id)
}
