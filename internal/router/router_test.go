package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/config"
	"github.com/deppfellow/gitminer/internal/database"
	"github.com/deppfellow/gitminer/internal/errs"
	"github.com/deppfellow/gitminer/internal/handler"
	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository/sqlite"
	"github.com/deppfellow/gitminer/internal/router"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	lite, err := database.OpenSQLite(context.Background(), database.MemoryPath, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			CORSAllowedOrigins: []string{"*"},
		},
		Database:      config.DatabaseConfig{Driver: config.DriverSQLite, Path: database.MemoryPath},
		Observability: config.DefaultObservabilityConfig(),
	}

	s := &server.Server{Config: cfg, Logger: &logger, Lite: lite}
	services := service.NewServices(s, sqlite.NewRepositories(lite.DB))

	return router.NewRouter(s, handler.NewHandlers(s, services))
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProjectLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("should create, read, update and delete a project", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)

		// when
		created := do(t, r, http.MethodPost, "/gitminer/projects", `{"name":"p1","web_url":"http://x"}`)

		// then
		require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
		project := decode[model.Project](t, created)
		require.NotEmpty(t, project.ID)
		path := "/gitminer/projects/" + project.ID

		got := do(t, r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, got.Code)
		assert.Equal(t, "p1", decode[model.Project](t, got).Name)

		updated := do(t, r, http.MethodPut, path, `{"name":"p2"}`)
		require.Equal(t, http.StatusNoContent, updated.Code, updated.Body.String())
		assert.Empty(t, updated.Body.String())

		afterUpdate := decode[model.Project](t, do(t, r, http.MethodGet, path, ""))
		assert.Equal(t, "p2", afterUpdate.Name)
		assert.Equal(t, "http://x", afterUpdate.WebURL)
		assert.Equal(t, project.ID, afterUpdate.ID)

		assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, path, "").Code)
		assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, path, "").Code)

		missing := do(t, r, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, missing.Code)
		assert.Equal(t, "Project not found", decode[errs.HTTPError](t, missing).Message)
	})

	t.Run("should 404 on update of an unknown id without creating it", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)

		// when
		rec := do(t, r, http.MethodPut, "/gitminer/projects/nope", `{"name":"p2"}`)

		// then
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/gitminer/projects/nope", "").Code)
	})

	t.Run("should reject an invalid body with field errors", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)

		// when
		rec := do(t, r, http.MethodPost, "/gitminer/projects", `{"web_url":"not a url"}`)

		// then
		require.Equal(t, http.StatusBadRequest, rec.Code)
		httpErr := decode[errs.HTTPError](t, rec)
		fields := make([]string, 0, len(httpErr.Errors))
		for _, fe := range httpErr.Errors {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(t, []string{"name", "web_url"}, fields)
	})
}

func TestIssueRoutes(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	created := do(t, r, http.MethodPost, "/gitminer/projects", `{
		"name": "p",
		"web_url": "http://x",
		"issues": [
			{"id": "i1", "title": "a", "state": "open", "author": {"id": "u1", "username": "ann"},
			 "comments": [{"id": "m1", "body": "first", "author": {"id": "u2"}}]},
			{"id": "i2", "title": "b", "state": "closed", "author": {"id": "u1"}},
			{"id": "i3", "title": "c", "state": "open", "author": {"id": "u2"}, "votes": 7}
		]
	}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	t.Run("should return only issues matching both state and author", func(t *testing.T) {
		t.Parallel()

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/issues?state=open&authorId=u1", "")

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		issues := decode[[]model.Issue](t, rec)
		require.Len(t, issues, 1)
		assert.Equal(t, "i1", issues[0].ID)
		require.Len(t, issues[0].Comments, 1)
		assert.Equal(t, "m1", issues[0].Comments[0].ID)
	})

	t.Run("should 404 for comments of a missing issue", func(t *testing.T) {
		t.Parallel()

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/issues/missing/comments", "")

		// then
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Issue not found", decode[errs.HTTPError](t, rec).Message)
	})

	t.Run("should list the comments of an issue", func(t *testing.T) {
		t.Parallel()

		// when
		withComments := do(t, r, http.MethodGet, "/gitminer/issues/i1/comments", "")
		withoutComments := do(t, r, http.MethodGet, "/gitminer/issues/i2/comments", "")

		// then
		require.Equal(t, http.StatusOK, withComments.Code)
		assert.Len(t, decode[[]model.Comment](t, withComments), 1)
		require.Equal(t, http.StatusOK, withoutComments.Code)
		assert.JSONEq(t, `[]`, withoutComments.Body.String())
	})

	t.Run("should order by votes descending", func(t *testing.T) {
		t.Parallel()

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/issues?order=-votes", "")

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		issues := decode[[]model.Issue](t, rec)
		require.Len(t, issues, 3)
		assert.Equal(t, "i3", issues[0].ID)
		assert.True(t, sort.SliceIsSorted(issues, func(a, b int) bool {
			return issues[a].Votes > issues[b].Votes
		}))
	})

	t.Run("should reject an unknown order field", func(t *testing.T) {
		t.Parallel()

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/issues?order=password", "")

		// then
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_SORT_FIELD", decode[errs.HTTPError](t, rec).Code)
	})
}

func TestPagination(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	for i := 0; i < 12; i++ {
		body := fmt.Sprintf(`{"id":"p%02d","name":"project %02d","web_url":"http://x/%d"}`, i, 11-i, i)
		rec := do(t, r, http.MethodPost, "/gitminer/projects", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	t.Run("should default to ten items", func(t *testing.T) {
		t.Parallel()

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/projects", "")

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]model.Project](t, rec), model.DefaultPageSize)
	})

	t.Run("should never return more than size items", func(t *testing.T) {
		t.Parallel()

		for _, tc := range []struct {
			query    string
			expected int
		}{
			{query: "page=0&size=5", expected: 5},
			{query: "page=2&size=5", expected: 2},
			{query: "page=9&size=5", expected: 0},
			{query: "size=100", expected: 12},
			{query: "page=1000000&size=100", expected: 0},
		} {
			// when
			rec := do(t, r, http.MethodGet, "/gitminer/projects?"+tc.query, "")

			// then
			require.Equal(t, http.StatusOK, rec.Code, tc.query)
			assert.Len(t, decode[[]model.Project](t, rec), tc.expected, tc.query)
		}
	})

	t.Run("should reject sizes and pages outside the allowed range", func(t *testing.T) {
		t.Parallel()

		for _, query := range []string{"size=0", "size=101", "page=-1", "size=abc", "page=1000001", "page=922337203685477581&size=10"} {
			// when
			rec := do(t, r, http.MethodGet, "/gitminer/projects?"+query, "")

			// then
			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		}
	})

	t.Run("should sort ascending and descending by name", func(t *testing.T) {
		t.Parallel()

		// when
		asc := decode[[]model.Project](t, do(t, r, http.MethodGet, "/gitminer/projects?order=name&size=100", ""))
		desc := decode[[]model.Project](t, do(t, r, http.MethodGet, "/gitminer/projects?order=-name&size=100", ""))

		// then
		assert.True(t, sort.SliceIsSorted(asc, func(a, b int) bool { return asc[a].Name < asc[b].Name }))
		assert.True(t, sort.SliceIsSorted(desc, func(a, b int) bool { return desc[a].Name > desc[b].Name }))
		assert.Equal(t, "p11", asc[0].ID)
		assert.Equal(t, "p00", desc[0].ID)
	})
}

func TestSystemRoutes(t *testing.T) {
	t.Parallel()

	t.Run("should report a healthy database", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)

		// when
		rec := do(t, r, http.MethodGet, "/status", "")

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "healthy", body["status"])
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, checks, "database")
		assert.NotContains(t, checks, "redis")
	})

	t.Run("should answer unknown routes with the error shape", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)

		// when
		rec := do(t, r, http.MethodGet, "/gitminer/nope", "")

		// then
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Route not found", decode[errs.HTTPError](t, rec).Message)
	})

	t.Run("should echo the request id", func(t *testing.T) {
		t.Parallel()

		// given
		r := newTestRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/gitminer/projects", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()

		// when
		r.ServeHTTP(rec, req)

		// then
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}
