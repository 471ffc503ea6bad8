package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

type ProjectHandler struct {
	Handler
	projectService *service.ProjectService
}

func NewProjectHandler(s *server.Server, projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		Handler:        NewHandler(s),
		projectService: projectService,
	}
}

func (h *ProjectHandler) List(c echo.Context, q *model.ListProjectsQuery) ([]model.Project, error) {
	return h.projectService.List(c.Request().Context(), q)
}

func (h *ProjectHandler) Get(c echo.Context, req *model.ResourceID) (*model.Project, error) {
	return h.projectService.Get(c.Request().Context(), req.ID)
}

func (h *ProjectHandler) Create(c echo.Context, project *model.Project) (*model.Project, error) {
	return h.projectService.Create(c.Request().Context(), project)
}

func (h *ProjectHandler) Update(c echo.Context, req *model.UpdateProjectRequest) error {
	return h.projectService.Update(c.Request().Context(), req)
}

func (h *ProjectHandler) Delete(c echo.Context, req *model.ResourceID) error {
	return h.projectService.Delete(c.Request().Context(), req.ID)
}
