package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/config"
	"github.com/deppfellow/gitminer/internal/database"
	"github.com/deppfellow/gitminer/internal/errs"
	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/repository/sqlite"
	"github.com/deppfellow/gitminer/internal/server"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()

	logger := zerolog.Nop()
	lite, err := database.OpenSQLite(context.Background(), database.MemoryPath, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })

	s := &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "test"}},
		Logger: &logger,
		Lite:   lite,
	}
	return NewServices(s, sqlite.NewRepositories(lite.DB))
}

func requireStatus(t *testing.T, err error, status int) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %v", err)
	assert.Equal(t, status, httpErr.Status)
	return httpErr
}

func listQuery(size int, order string) model.ListQuery {
	return model.ListQuery{Page: 0, Size: size, Order: order}
}

func strPtr(s string) *string {
	return &s
}

func TestProjectService(t *testing.T) {
	t.Parallel()

	t.Run("should assign ids and return the stored project graph", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		input := &model.Project{
			Name:   "p1",
			WebURL: "http://x",
			Commits: []model.Commit{
				{Title: "init", AuthorName: "ann", AuthoredDate: time.Now(), WebURL: "http://x/c"},
			},
			Issues: []model.Issue{
				{
					Title: "crash", State: "open",
					Author:   &model.User{ID: "u1"},
					Comments: []model.Comment{{Body: "same here"}},
				},
			},
		}

		// when
		created, err := services.Project.Create(ctx, input)

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		require.Len(t, created.Commits, 1)
		assert.NotEmpty(t, created.Commits[0].ID)
		assert.Equal(t, created.ID, created.Commits[0].ProjectID)
		require.Len(t, created.Issues, 1)
		issue := created.Issues[0]
		assert.Equal(t, created.ID, issue.ProjectID)
		assert.False(t, issue.CreatedAt.IsZero())
		assert.Equal(t, issue.CreatedAt, issue.UpdatedAt)
		assert.NotNil(t, issue.Labels)
		require.Len(t, issue.Comments, 1)
		assert.Equal(t, issue.ID, issue.Comments[0].IssueID)
	})

	t.Run("should keep a client supplied id and reject a duplicate", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		_, err := services.Project.Create(ctx, &model.Project{ID: "42", Name: "p1", WebURL: "http://x"})
		require.NoError(t, err)

		// when
		_, err = services.Project.Create(ctx, &model.Project{ID: "42", Name: "p2", WebURL: "http://y"})

		// then
		requireStatus(t, err, http.StatusBadRequest)
		project, err := services.Project.Get(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "p1", project.Name)
	})

	t.Run("should update only present fields and 404 on unknown ids", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		created, err := services.Project.Create(ctx, &model.Project{Name: "p1", WebURL: "http://x"})
		require.NoError(t, err)

		// when
		err = services.Project.Update(ctx, &model.UpdateProjectRequest{ID: created.ID, Name: strPtr("p2")})
		require.NoError(t, err)
		missingErr := services.Project.Update(ctx, &model.UpdateProjectRequest{ID: "missing", Name: strPtr("p3")})

		// then
		project, err := services.Project.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "p2", project.Name)
		assert.Equal(t, "http://x", project.WebURL)
		httpErr := requireStatus(t, missingErr, http.StatusNotFound)
		assert.Equal(t, "Project not found", httpErr.Message)
	})

	t.Run("should delete idempotently", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		created, err := services.Project.Create(ctx, &model.Project{Name: "p1", WebURL: "http://x"})
		require.NoError(t, err)

		// when
		firstErr := services.Project.Delete(ctx, created.ID)
		secondErr := services.Project.Delete(ctx, created.ID)

		// then
		require.NoError(t, firstErr)
		require.NoError(t, secondErr)
		_, err = services.Project.Get(ctx, created.ID)
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("should filter by name and reject unknown order fields", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		for _, name := range []string{"a", "b", "a"} {
			_, err := services.Project.Create(ctx, &model.Project{Name: name, WebURL: "http://x"})
			require.NoError(t, err)
		}

		// when
		named, err := services.Project.List(ctx, &model.ListProjectsQuery{ListQuery: listQuery(10, ""), Name: "a"})
		require.NoError(t, err)
		_, orderErr := services.Project.List(ctx, &model.ListProjectsQuery{ListQuery: listQuery(10, "-password")})

		// then
		assert.Len(t, named, 2)
		for _, p := range named {
			assert.NotNil(t, p.Commits)
			assert.NotNil(t, p.Issues)
		}
		httpErr := requireStatus(t, orderErr, http.StatusBadRequest)
		assert.Equal(t, "INVALID_SORT_FIELD", httpErr.Code)
	})
}

func TestIssueService(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, services *Services) {
		t.Helper()

		ctx := context.Background()
		project, err := services.Project.Create(ctx, &model.Project{Name: "p", WebURL: "http://x"})
		require.NoError(t, err)

		for _, issue := range []model.Issue{
			{ID: "i1", State: "open", Author: &model.User{ID: "u1"}},
			{ID: "i2", State: "closed", Author: &model.User{ID: "u1"}},
			{ID: "i3", State: "open", Author: &model.User{ID: "u2"}},
			{ID: "i4", State: "open"},
		} {
			issue.ProjectID = project.ID
			issue.Title = "issue " + issue.ID
			_, err := services.Issue.Create(ctx, &issue)
			require.NoError(t, err)
		}
	}

	t.Run("should dispatch on every filter combination", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		seed(t, services)

		tests := []struct {
			state, authorID string
			expected        []string
		}{
			{state: "open", authorID: "u1", expected: []string{"i1"}},
			{state: "open", expected: []string{"i1", "i3", "i4"}},
			{authorID: "u1", expected: []string{"i1", "i2"}},
			{expected: []string{"i1", "i2", "i3", "i4"}},
		}

		for _, tt := range tests {
			// when
			issues, err := services.Issue.List(ctx, &model.ListIssuesQuery{
				ListQuery: listQuery(10, ""),
				State:     tt.state,
				AuthorID:  tt.authorID,
			})

			// then
			require.NoError(t, err)
			ids := make([]string, len(issues))
			for i, issue := range issues {
				ids[i] = issue.ID
			}
			assert.Equal(t, tt.expected, ids, fmt.Sprintf("state=%q authorId=%q", tt.state, tt.authorID))
		}
	})

	t.Run("should 404 on comments of a missing issue and list an existing one", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		seed(t, services)

		// when
		_, missingErr := services.Issue.Comments(ctx, "missing")
		comments, err := services.Issue.Comments(ctx, "i4")

		// then
		httpErr := requireStatus(t, missingErr, http.StatusNotFound)
		assert.Equal(t, "Issue not found", httpErr.Message)
		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Empty(t, comments)
	})

	t.Run("should reject an issue for an unknown project", func(t *testing.T) {
		t.Parallel()

		// given
		services := newTestServices(t)

		// when
		_, err := services.Issue.Create(context.Background(), &model.Issue{
			ProjectID: "nope", Title: "t", State: "open",
		})

		// then
		httpErr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "PROJECT_NOT_FOUND", httpErr.Code)
		assert.Equal(t, "The referenced Project does not exist", httpErr.Message)
	})
}

func TestCommentService(t *testing.T) {
	t.Parallel()

	t.Run("should reject a comment for an unknown issue", func(t *testing.T) {
		t.Parallel()

		// given
		services := newTestServices(t)

		// when
		_, err := services.Comment.Create(context.Background(), &model.Comment{IssueID: "nope", Body: "hi"})

		// then
		httpErr := requireStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "ISSUE_NOT_FOUND", httpErr.Code)
	})

	t.Run("should stamp updated_at and keep created_at", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		comment, err := services.Comment.Create(ctx, &model.Comment{Body: "first", CreatedAt: created})
		require.NoError(t, err)

		// when
		require.NoError(t, services.Comment.Update(ctx, &model.UpdateCommentRequest{ID: comment.ID, Body: strPtr("edited")}))
		stored, err := services.Comment.Get(ctx, comment.ID)

		// then
		require.NoError(t, err)
		assert.Equal(t, "edited", stored.Body)
		assert.Equal(t, created, stored.CreatedAt)
		assert.True(t, stored.UpdatedAt.After(created))
	})

	t.Run("should filter by author", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		for _, c := range []model.Comment{
			{Body: "a", Author: &model.User{ID: "u1"}},
			{Body: "b", Author: &model.User{ID: "u2"}},
		} {
			_, err := services.Comment.Create(ctx, &c)
			require.NoError(t, err)
		}

		// when
		comments, err := services.Comment.List(ctx, &model.ListCommentsQuery{ListQuery: listQuery(10, ""), AuthorID: "u2"})

		// then
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "b", comments[0].Body)
	})
}

func TestCommitService(t *testing.T) {
	t.Parallel()

	t.Run("should order by authored date descending", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, id := range []string{"c1", "c2", "c3"} {
			_, err := services.Commit.Create(ctx, &model.Commit{
				ID: id, AuthorName: "ann", WebURL: "http://x", AuthoredDate: base.Add(time.Duration(i) * time.Hour),
			})
			require.NoError(t, err)
		}

		// when
		commits, err := services.Commit.List(ctx, &model.ListCommitsQuery{ListQuery: listQuery(2, "-authoredDate")})

		// then
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, "c3", commits[0].ID)
		assert.Equal(t, "c2", commits[1].ID)
	})

	t.Run("should 404 when updating a missing commit and delete twice", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		services := newTestServices(t)

		// when
		updateErr := services.Commit.Update(ctx, &model.UpdateCommitRequest{ID: "missing", Title: strPtr("x")})
		deleteErr := services.Commit.Delete(ctx, "missing")

		// then
		requireStatus(t, updateErr, http.StatusNotFound)
		assert.NoError(t, deleteErr)
	})
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("should map an invalid sort field to a 400 on order", func(t *testing.T) {
		t.Parallel()

		// given
		err := fmt.Errorf("%w: %q", repository.ErrInvalidSortField, "secret")

		// when
		httpErr := requireStatus(t, storeError(err), http.StatusBadRequest)

		// then
		require.Len(t, httpErr.Errors, 1)
		assert.Equal(t, "order", httpErr.Errors[0].Field)
	})
}
