package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

type CommitHandler struct {
	Handler
	commitService *service.CommitService
}

func NewCommitHandler(s *server.Server, commitService *service.CommitService) *CommitHandler {
	return &CommitHandler{
		Handler:       NewHandler(s),
		commitService: commitService,
	}
}

func (h *CommitHandler) List(c echo.Context, q *model.ListCommitsQuery) ([]model.Commit, error) {
	return h.commitService.List(c.Request().Context(), q)
}

func (h *CommitHandler) Get(c echo.Context, req *model.ResourceID) (*model.Commit, error) {
	return h.commitService.Get(c.Request().Context(), req.ID)
}

func (h *CommitHandler) Create(c echo.Context, commit *model.Commit) (*model.Commit, error) {
	return h.commitService.Create(c.Request().Context(), commit)
}

func (h *CommitHandler) Update(c echo.Context, req *model.UpdateCommitRequest) error {
	return h.commitService.Update(c.Request().Context(), req)
}

func (h *CommitHandler) Delete(c echo.Context, req *model.ResourceID) error {
	return h.commitService.Delete(c.Request().Context(), req.ID)
}
