package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

type IssueHandler struct {
	Handler
	issueService *service.IssueService
}

func NewIssueHandler(s *server.Server, issueService *service.IssueService) *IssueHandler {
	return &IssueHandler{
		Handler:      NewHandler(s),
		issueService: issueService,
	}
}

func (h *IssueHandler) List(c echo.Context, q *model.ListIssuesQuery) ([]model.Issue, error) {
	return h.issueService.List(c.Request().Context(), q)
}

func (h *IssueHandler) Get(c echo.Context, req *model.ResourceID) (*model.Issue, error) {
	return h.issueService.Get(c.Request().Context(), req.ID)
}

// Comments answers 404 for a missing issue rather than an empty list.
func (h *IssueHandler) Comments(c echo.Context, req *model.ResourceID) ([]model.Comment, error) {
	return h.issueService.Comments(c.Request().Context(), req.ID)
}

func (h *IssueHandler) Create(c echo.Context, issue *model.Issue) (*model.Issue, error) {
	return h.issueService.Create(c.Request().Context(), issue)
}

func (h *IssueHandler) Update(c echo.Context, req *model.UpdateIssueRequest) error {
	return h.issueService.Update(c.Request().Context(), req)
}

func (h *IssueHandler) Delete(c echo.Context, req *model.ResourceID) error {
	return h.issueService.Delete(c.Request().Context(), req.ID)
}
