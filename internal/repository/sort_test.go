package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/model"
)

func TestSortColumnsOrderBy(t *testing.T) {
	t.Parallel()

	t.Run("should order by id when no sort is requested", func(t *testing.T) {
		t.Parallel()

		// when
		orderBy, err := ProjectSortColumns.OrderBy("p", nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, "p.id ASC", orderBy)
	})

	t.Run("should break ties by id", func(t *testing.T) {
		t.Parallel()

		// when
		orderBy, err := IssueSortColumns.OrderBy("i", &model.Sort{Field: "createdAt", Desc: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, "i.created_at DESC, i.id ASC", orderBy)
	})

	t.Run("should not repeat id as a tie breaker", func(t *testing.T) {
		t.Parallel()

		// when
		orderBy, err := CommentSortColumns.OrderBy("m", &model.Sort{Field: "id", Desc: true})

		// then
		require.NoError(t, err)
		assert.Equal(t, "m.id DESC", orderBy)
	})

	t.Run("should reject fields outside the whitelist", func(t *testing.T) {
		t.Parallel()

		for _, field := range []string{"", "password", "name; DROP TABLE projects"} {
			// when
			_, err := CommitSortColumns.OrderBy("c", &model.Sort{Field: field})

			// then
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSortField))
		}
	})
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	// given
	cause := errors.New("no rows in result set")

	// when
	err := NotFound(TableComments, cause)

	// then
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "table:comments: no rows in result set", err.Error())
}
