package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

type CommentHandler struct {
	Handler
	commentService *service.CommentService
}

func NewCommentHandler(s *server.Server, commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		Handler:        NewHandler(s),
		commentService: commentService,
	}
}

func (h *CommentHandler) List(c echo.Context, q *model.ListCommentsQuery) ([]model.Comment, error) {
	return h.commentService.List(c.Request().Context(), q)
}

func (h *CommentHandler) Get(c echo.Context, req *model.ResourceID) (*model.Comment, error) {
	return h.commentService.Get(c.Request().Context(), req.ID)
}

func (h *CommentHandler) Create(c echo.Context, comment *model.Comment) (*model.Comment, error) {
	return h.commentService.Create(c.Request().Context(), comment)
}

func (h *CommentHandler) Update(c echo.Context, req *model.UpdateCommentRequest) error {
	return h.commentService.Update(c.Request().Context(), req)
}

func (h *CommentHandler) Delete(c echo.Context, req *model.ResourceID) error {
	return h.commentService.Delete(c.Request().Context(), req.ID)
}
