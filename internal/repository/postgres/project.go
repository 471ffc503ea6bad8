package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
)

const selectProjects = `SELECT p.id, p.name, p.web_url FROM projects p`

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func scanProject(row pgx.CollectableRow) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.WebURL)
	return p, err
}

func (r *ProjectRepository) FindAll(ctx context.Context, page model.PageSpec) ([]model.Project, error) {
	return r.find(ctx, "", nil, page)
}

func (r *ProjectRepository) FindByName(ctx context.Context, name string, page model.PageSpec) ([]model.Project, error) {
	return r.find(ctx, "p.name = @name", pgx.NamedArgs{"name": name}, page)
}

func (r *ProjectRepository) find(ctx context.Context, where string, args pgx.NamedArgs, page model.PageSpec) ([]model.Project, error) {
	sql, args, err := pageQuery(selectProjects, where, "p", repository.ProjectSortColumns, args, page)
	if err != nil {
		return nil, err
	}
	return list(ctx, r.pool, repository.TableProjects, sql, args, scanProject)
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	return findOne(ctx, r.pool, repository.TableProjects, selectProjects+` WHERE p.id = @id`, id, scanProject)
}

func (r *ProjectRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.pool, repository.TableProjects, id)
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (id, name, web_url)
			VALUES (@id, @name, @web_url)`,
			pgx.NamedArgs{
				"id":      project.ID,
				"name":    project.Name,
				"web_url": project.WebURL,
			})
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
	return updateOne(ctx, r.pool, repository.TableProjects, `
		UPDATE projects SET name = @name, web_url = @web_url
		WHERE id = @id`,
		pgx.NamedArgs{
			"id":      project.ID,
			"name":    project.Name,
			"web_url": project.WebURL,
		})
}

func (r *ProjectRepository) DeleteByID(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, repository.TableProjects, id)
}
