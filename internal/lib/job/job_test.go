package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/gitminer/internal/config"
)

type stubPruner struct {
	deleted int64
	err     error
	calls   int
}

func (s *stubPruner) DeleteOrphans(ctx context.Context) (int64, error) {
	s.calls++
	return s.deleted, s.err
}

func newTestJobService(pruner UserPruner) *JobService {
	logger := zerolog.Nop()
	j := &JobService{logger: &logger}
	j.InitHandlers(pruner)
	return j
}

func TestNewUserPruneTask(t *testing.T) {
	t.Parallel()

	t.Run("should carry the reason in its payload", func(t *testing.T) {
		t.Parallel()

		// when
		task, err := NewUserPruneTask("issue deleted")

		// then
		require.NoError(t, err)
		assert.Equal(t, TaskUserPrune, task.Type())
		var payload UserPrunePayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		assert.Equal(t, "issue deleted", payload.Reason)
	})
}

func TestHandleUserPruneTask(t *testing.T) {
	t.Parallel()

	t.Run("should delete orphan users", func(t *testing.T) {
		t.Parallel()

		// given
		pruner := &stubPruner{deleted: 2}
		j := newTestJobService(pruner)
		task, err := NewUserPruneTask("project deleted")
		require.NoError(t, err)

		// when
		err = j.handleUserPruneTask(context.Background(), task)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, pruner.calls)
	})

	t.Run("should retry when a user is referenced again mid prune", func(t *testing.T) {
		t.Parallel()

		// given
		fkErr := fmt.Errorf("failed to delete orphan users: %w", &pgconn.PgError{
			Code:           "23503",
			TableName:      "issues",
			ConstraintName: "issues_author_id_fkey",
		})
		pruner := &stubPruner{err: fkErr}
		j := newTestJobService(pruner)
		task, err := NewUserPruneTask("issue deleted")
		require.NoError(t, err)

		// when
		err = j.handleUserPruneTask(context.Background(), task)

		// then
		require.ErrorIs(t, err, fkErr)
		assert.Equal(t, 1, pruner.calls)
	})

	t.Run("should return the store error so asynq retries", func(t *testing.T) {
		t.Parallel()

		// given
		storeErr := errors.New("database is locked")
		j := newTestJobService(&stubPruner{err: storeErr})
		task, err := NewUserPruneTask("comment deleted")
		require.NoError(t, err)

		// when
		err = j.handleUserPruneTask(context.Background(), task)

		// then
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("should reject a malformed payload without touching the store", func(t *testing.T) {
		t.Parallel()

		// given
		pruner := &stubPruner{}
		j := newTestJobService(pruner)

		// when
		err := j.handleUserPruneTask(context.Background(), asynq.NewTask(TaskUserPrune, []byte("{")))

		// then
		require.Error(t, err)
		assert.Zero(t, pruner.calls)
	})
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("should refuse to start before handlers are initialized", func(t *testing.T) {
		t.Parallel()

		// given
		logger := zerolog.Nop()
		j := &JobService{logger: &logger}

		// when
		err := j.Start()

		// then
		require.Error(t, err)
	})
}

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("should release the enqueue client of a service that never started", func(t *testing.T) {
		t.Parallel()

		// given
		logger := zerolog.Nop()
		j := NewJobService(&logger, &config.Config{Redis: config.RedisConfig{Address: "127.0.0.1:0"}})

		// when
		err := j.Close()

		// then
		require.NoError(t, err)
		assert.Error(t, j.EnqueueUserPrune(context.Background(), "project deleted"))
	})
}
