package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/model"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	t.Run("should allocate a distinct value per call", func(t *testing.T) {
		t.Parallel()

		// when
		first := newRequest[*model.UpdateProjectRequest]()
		second := newRequest[*model.UpdateProjectRequest]()

		// then
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.NotSame(t, first, second)
	})

	t.Run("should apply list defaults before binding", func(t *testing.T) {
		t.Parallel()

		// when
		q := newRequest[*model.ListIssuesQuery]()

		// then
		assert.Equal(t, 0, q.Page)
		assert.Equal(t, model.DefaultPageSize, q.Size)
	})
}
