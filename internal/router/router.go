// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/deppfellow/gitminer/internal/handler"
	"github.com/deppfellow/gitminer/internal/middleware"
	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/server"
)

// APIPrefix is where the resource routes are mounted.
const APIPrefix = "/gitminer"

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(echoMiddleware.RemoveTrailingSlash())

	if middlewares.RateLimit.Enabled() {
		router.Use(middlewares.RateLimit.Limit())
	}

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	api := router.Group(APIPrefix)

	// Reads stay open; writes require a session once auth is configured.
	var write []echo.MiddlewareFunc
	if s.Config.Auth.Enabled() {
		write = append(write, middlewares.Auth.RequireAuth)
	}

	registerProjectRoutes(api, h, write)
	registerCommitRoutes(api, h, write)
	registerIssueRoutes(api, h, write)
	registerCommentRoutes(api, h, write)

	return router
}

func registerProjectRoutes(api *echo.Group, h *handler.Handlers, write []echo.MiddlewareFunc) {
	projects := api.Group("/projects")
	p := h.Project

	projects.GET("", handler.Handle(p.Handler, p.List, http.StatusOK, &model.ListProjectsQuery{}))
	projects.GET("/:id", handler.Handle(p.Handler, p.Get, http.StatusOK, &model.ResourceID{}))
	projects.POST("", handler.Handle(p.Handler, p.Create, http.StatusCreated, &model.Project{}), write...)
	projects.PUT("/:id", handler.HandleNoContent(p.Handler, p.Update, http.StatusNoContent, &model.UpdateProjectRequest{}), write...)
	projects.DELETE("/:id", handler.HandleNoContent(p.Handler, p.Delete, http.StatusNoContent, &model.ResourceID{}), write...)
}

func registerCommitRoutes(api *echo.Group, h *handler.Handlers, write []echo.MiddlewareFunc) {
	commits := api.Group("/commits")
	c := h.Commit

	commits.GET("", handler.Handle(c.Handler, c.List, http.StatusOK, &model.ListCommitsQuery{}))
	commits.GET("/:id", handler.Handle(c.Handler, c.Get, http.StatusOK, &model.ResourceID{}))
	commits.POST("", handler.Handle(c.Handler, c.Create, http.StatusCreated, &model.Commit{}), write...)
	commits.PUT("/:id", handler.HandleNoContent(c.Handler, c.Update, http.StatusNoContent, &model.UpdateCommitRequest{}), write...)
	commits.DELETE("/:id", handler.HandleNoContent(c.Handler, c.Delete, http.StatusNoContent, &model.ResourceID{}), write...)
}

func registerIssueRoutes(api *echo.Group, h *handler.Handlers, write []echo.MiddlewareFunc) {
	issues := api.Group("/issues")
	i := h.Issue

	issues.GET("", handler.Handle(i.Handler, i.List, http.StatusOK, &model.ListIssuesQuery{}))
	issues.GET("/:id", handler.Handle(i.Handler, i.Get, http.StatusOK, &model.ResourceID{}))
	issues.GET("/:id/comments", handler.Handle(i.Handler, i.Comments, http.StatusOK, &model.ResourceID{}))
	issues.POST("", handler.Handle(i.Handler, i.Create, http.StatusCreated, &model.Issue{}), write...)
	issues.PUT("/:id", handler.HandleNoContent(i.Handler, i.Update, http.StatusNoContent, &model.UpdateIssueRequest{}), write...)
	issues.DELETE("/:id", handler.HandleNoContent(i.Handler, i.Delete, http.StatusNoContent, &model.ResourceID{}), write...)
}

func registerCommentRoutes(api *echo.Group, h *handler.Handlers, write []echo.MiddlewareFunc) {
	comments := api.Group("/comments")
	c := h.Comment

	comments.GET("", handler.Handle(c.Handler, c.List, http.StatusOK, &model.ListCommentsQuery{}))
	comments.GET("/:id", handler.Handle(c.Handler, c.Get, http.StatusOK, &model.ResourceID{}))
	comments.POST("", handler.Handle(c.Handler, c.Create, http.StatusCreated, &model.Comment{}), write...)
	comments.PUT("/:id", handler.HandleNoContent(c.Handler, c.Update, http.StatusNoContent, &model.UpdateCommentRequest{}), write...)
	comments.DELETE("/:id", handler.HandleNoContent(c.Handler, c.Delete, http.StatusNoContent, &model.ResourceID{}), write...)
}
