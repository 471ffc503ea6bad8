package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/database"
	"github.com/deppfellow/gitminer/internal/model"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/sqlerr"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := zerolog.Nop()
	lite, err := database.OpenSQLite(context.Background(), database.MemoryPath, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })

	return lite.DB
}

func firstPage(size int) model.PageSpec {
	return model.PageSpec{Page: 0, Size: size}
}

func seedProject(t *testing.T, repos *repository.Repositories) *model.Project {
	t.Helper()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	author := &model.User{ID: "u1", Username: "ann", Name: "Ann"}

	project := &model.Project{
		ID:     "p1",
		Name:   "gitminer",
		WebURL: "https://example.com/gitminer",
		Commits: []model.Commit{
			{ID: "c1", ProjectID: "p1", Title: "init", AuthorName: "ann", AuthoredDate: created, WebURL: "https://example.com/c1"},
			{ID: "c2", ProjectID: "p1", Title: "fix", AuthorName: "bob", AuthoredDate: created.Add(time.Hour), WebURL: "https://example.com/c2"},
		},
		Issues: []model.Issue{
			{
				ID: "i1", ProjectID: "p1", Title: "crash", State: "open",
				CreatedAt: created, UpdatedAt: created, Labels: []string{"bug"}, Votes: 2, Author: author,
				Comments: []model.Comment{
					{ID: "m1", IssueID: "i1", Body: "confirmed", CreatedAt: created, UpdatedAt: created, Author: author},
				},
			},
			{
				ID: "i2", ProjectID: "p1", Title: "docs", State: "closed",
				CreatedAt: created.Add(time.Minute), UpdatedAt: created.Add(time.Minute), Votes: 5,
				Author: &model.User{ID: "u2", Username: "bob"},
			},
		},
	}

	require.NoError(t, repos.Project.Create(context.Background(), project))
	return project
}

func TestProjectRepository(t *testing.T) {
	t.Parallel()

	t.Run("should store the whole project graph in one call", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)

		// when
		commits, err := repos.Commit.FindByProjectIDs(ctx, []string{"p1"})
		require.NoError(t, err)
		issues, err := repos.Issue.FindByProjectIDs(ctx, []string{"p1"})
		require.NoError(t, err)
		comments, err := repos.Comment.FindByIssueIDs(ctx, []string{"i1", "i2"})
		require.NoError(t, err)

		// then
		assert.Len(t, commits, 2)
		require.Len(t, issues, 2)
		assert.Equal(t, []string{"bug"}, issues[0].Labels)
		assert.Equal(t, []string{}, issues[1].Labels)
		require.NotNil(t, issues[0].Author)
		assert.Equal(t, "ann", issues[0].Author.Username)
		require.Len(t, comments, 1)
		assert.Equal(t, "i1", comments[0].IssueID)
	})

	t.Run("should roll back the graph when a child fails", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		project := &model.Project{
			ID: "p1", Name: "n", WebURL: "https://example.com",
			Commits: []model.Commit{
				{ID: "dup", AuthorName: "a", WebURL: "https://example.com", ProjectID: "p1"},
				{ID: "dup", AuthorName: "a", WebURL: "https://example.com", ProjectID: "p1"},
			},
		}

		// when
		err := repos.Project.Create(ctx, project)

		// then
		require.Error(t, err)
		exists, err := repos.Project.ExistsByID(ctx, "p1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("should return a table-prefixed no rows error for unknown ids", func(t *testing.T) {
		t.Parallel()

		// given
		repos := NewRepositories(newTestDB(t))

		// when
		_, err := repos.Project.FindByID(context.Background(), "missing")

		// then
		require.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Contains(t, err.Error(), "table:projects:")
	})

	t.Run("should report no rows when updating an unknown project", func(t *testing.T) {
		t.Parallel()

		// given
		repos := NewRepositories(newTestDB(t))

		// when
		err := repos.Project.Update(context.Background(), &model.Project{ID: "missing", Name: "x", WebURL: "https://x"})

		// then
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})

	t.Run("should cascade deletes to commits, issues and comments", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)

		// when
		require.NoError(t, repos.Project.DeleteByID(ctx, "p1"))
		require.NoError(t, repos.Project.DeleteByID(ctx, "p1"))

		// then
		commits, err := repos.Commit.FindAll(ctx, firstPage(10))
		require.NoError(t, err)
		issues, err := repos.Issue.FindAll(ctx, firstPage(10))
		require.NoError(t, err)
		comments, err := repos.Comment.FindAll(ctx, firstPage(10))
		require.NoError(t, err)
		assert.Empty(t, commits)
		assert.Empty(t, issues)
		assert.Empty(t, comments)
	})
}

func TestPaging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))
	for _, p := range []model.Project{
		{ID: "a", Name: "zeta", WebURL: "https://example.com/a"},
		{ID: "b", Name: "alpha", WebURL: "https://example.com/b"},
		{ID: "c", Name: "mid", WebURL: "https://example.com/c"},
		{ID: "d", Name: "alpha", WebURL: "https://example.com/d"},
	} {
		require.NoError(t, repos.Project.Create(ctx, &p))
	}

	t.Run("should never return more than size items", func(t *testing.T) {
		t.Parallel()

		// when
		first, err := repos.Project.FindAll(ctx, model.PageSpec{Page: 0, Size: 3})
		require.NoError(t, err)
		second, err := repos.Project.FindAll(ctx, model.PageSpec{Page: 1, Size: 3})
		require.NoError(t, err)
		beyond, err := repos.Project.FindAll(ctx, model.PageSpec{Page: 5, Size: 3})
		require.NoError(t, err)

		// then
		assert.Len(t, first, 3)
		assert.Len(t, second, 1)
		assert.NotNil(t, beyond)
		assert.Empty(t, beyond)
	})

	t.Run("should sort by the requested field with id as tie breaker", func(t *testing.T) {
		t.Parallel()

		// when
		asc, err := repos.Project.FindAll(ctx, model.PageSpec{Size: 10, Sort: &model.Sort{Field: "name"}})
		require.NoError(t, err)
		desc, err := repos.Project.FindAll(ctx, model.PageSpec{Size: 10, Sort: &model.Sort{Field: "name", Desc: true}})
		require.NoError(t, err)

		// then
		assert.Equal(t, []string{"b", "d", "c", "a"}, projectIDs(asc))
		assert.Equal(t, []string{"a", "c", "b", "d"}, projectIDs(desc))
	})

	t.Run("should filter by exact name", func(t *testing.T) {
		t.Parallel()

		// when
		projects, err := repos.Project.FindByName(ctx, "alpha", firstPage(10))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d"}, projectIDs(projects))
	})

	t.Run("should reject unknown sort fields", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := repos.Project.FindAll(ctx, model.PageSpec{Size: 10, Sort: &model.Sort{Field: "secret"}})

		// then
		assert.ErrorIs(t, err, repository.ErrInvalidSortField)
	})
}

func projectIDs(projects []model.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}

func TestIssueRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))
	seedProject(t, repos)

	t.Run("should combine the state and author filters", func(t *testing.T) {
		t.Parallel()

		// when
		both, err := repos.Issue.FindByStateAndAuthorID(ctx, "open", "u1", firstPage(10))
		require.NoError(t, err)
		mismatch, err := repos.Issue.FindByStateAndAuthorID(ctx, "closed", "u1", firstPage(10))
		require.NoError(t, err)
		byState, err := repos.Issue.FindByState(ctx, "closed", firstPage(10))
		require.NoError(t, err)
		byAuthor, err := repos.Issue.FindByAuthorID(ctx, "u2", firstPage(10))
		require.NoError(t, err)

		// then
		require.Len(t, both, 1)
		assert.Equal(t, "i1", both[0].ID)
		assert.Empty(t, mismatch)
		require.Len(t, byState, 1)
		assert.Equal(t, "i2", byState[0].ID)
		require.Len(t, byAuthor, 1)
		assert.Equal(t, "i2", byAuthor[0].ID)
	})

	t.Run("should sort issues by votes descending", func(t *testing.T) {
		t.Parallel()

		// when
		issues, err := repos.Issue.FindAll(ctx, model.PageSpec{Size: 10, Sort: &model.Sort{Field: "votes", Desc: true}})

		// then
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "i2", issues[0].ID)
		assert.Equal(t, "i1", issues[1].ID)
	})

	t.Run("should read back timestamps in UTC", func(t *testing.T) {
		t.Parallel()

		// when
		issue, err := repos.Issue.FindByID(ctx, "i1")

		// then
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), issue.CreatedAt)
		assert.Nil(t, issue.ClosedAt)
	})
}

func TestIssueRepositoryUpdate(t *testing.T) {
	t.Parallel()

	t.Run("should persist the mutable fields", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)
		issue, err := repos.Issue.FindByID(ctx, "i1")
		require.NoError(t, err)
		closed := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		issue.State = "closed"
		issue.ClosedAt = &closed
		issue.Labels = []string{"bug", "wontfix"}

		// when
		require.NoError(t, repos.Issue.Update(ctx, issue))
		stored, err := repos.Issue.FindByID(ctx, "i1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "closed", stored.State)
		require.NotNil(t, stored.ClosedAt)
		assert.Equal(t, closed, *stored.ClosedAt)
		assert.Equal(t, []string{"bug", "wontfix"}, stored.Labels)
		assert.Equal(t, issue.CreatedAt, stored.CreatedAt)
	})
}

func TestUserRepositoryDeleteOrphans(t *testing.T) {
	t.Parallel()

	t.Run("should remove only users nothing refers to", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)
		require.NoError(t, repos.Issue.DeleteByID(ctx, "i2"))

		// when
		deleted, err := repos.User.DeleteOrphans(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		issue, err := repos.Issue.FindByID(ctx, "i1")
		require.NoError(t, err)
		require.NotNil(t, issue.Author)
		assert.Equal(t, "u1", issue.Author.ID)
	})

	t.Run("should refuse to delete a user an issue still refers to", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		db := newTestDB(t)
		repos := NewRepositories(db)
		seedProject(t, repos)

		// when
		_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = 'u1'`)

		// then
		require.Error(t, err)
		assert.Equal(t, sqlerr.ForeignKeyViolation, sqlerr.ErrCode(err))
		issue, err := repos.Issue.FindByID(ctx, "i1")
		require.NoError(t, err)
		require.NotNil(t, issue.Author)
		assert.Equal(t, "Ann", issue.Author.Name)
	})
}

func TestCommentRepository(t *testing.T) {
	t.Parallel()

	t.Run("should filter by author and update the body", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)

		// when
		byAuthor, err := repos.Comment.FindByAuthorID(ctx, "u1", firstPage(10))
		require.NoError(t, err)
		require.Len(t, byAuthor, 1)
		comment := byAuthor[0]
		comment.Body = "fixed in c2"
		comment.UpdatedAt = comment.UpdatedAt.Add(time.Hour)
		require.NoError(t, repos.Comment.Update(ctx, &comment))
		stored, err := repos.Comment.FindByID(ctx, "m1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "fixed in c2", stored.Body)
		assert.Equal(t, comment.UpdatedAt, stored.UpdatedAt)
		assert.Equal(t, comment.CreatedAt, stored.CreatedAt)
	})
}

func TestCommentRepositoryAuthorReference(t *testing.T) {
	t.Parallel()

	t.Run("should keep the stored profile when the author is only referenced", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)
		created := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

		// when
		require.NoError(t, repos.Comment.Create(ctx, &model.Comment{
			ID: "m2", IssueID: "i1", Body: "+1", CreatedAt: created, UpdatedAt: created,
			Author: &model.User{ID: "u1"},
		}))
		issue, err := repos.Issue.FindByID(ctx, "i1")

		// then
		require.NoError(t, err)
		require.NotNil(t, issue.Author)
		assert.Equal(t, "Ann", issue.Author.Name)
		assert.Equal(t, "ann", issue.Author.Username)
	})

	t.Run("should let a later full profile replace stored fields", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)
		created := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

		// when
		require.NoError(t, repos.Comment.Create(ctx, &model.Comment{
			ID: "m2", IssueID: "i1", Body: "+1", CreatedAt: created, UpdatedAt: created,
			Author: &model.User{ID: "u1", Name: "Ann Lee"},
		}))
		stored, err := repos.Comment.FindByID(ctx, "m2")

		// then
		require.NoError(t, err)
		require.NotNil(t, stored.Author)
		assert.Equal(t, "Ann Lee", stored.Author.Name)
		assert.Equal(t, "ann", stored.Author.Username)
	})
}

func TestCommitRepository(t *testing.T) {
	t.Parallel()

	t.Run("should filter by author name", func(t *testing.T) {
		t.Parallel()

		// given
		ctx := context.Background()
		repos := NewRepositories(newTestDB(t))
		seedProject(t, repos)

		// when
		commits, err := repos.Commit.FindByAuthorName(ctx, "bob", firstPage(10))

		// then
		require.NoError(t, err)
		require.Len(t, commits, 1)
		assert.Equal(t, "c2", commits[0].ID)
		assert.Equal(t, "p1", commits[0].ProjectID)
	})
}
