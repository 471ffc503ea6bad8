package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/gitminer/internal/sqlerr"
)

// UserPruner deletes users that are no longer referenced.
type UserPruner interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// InitHandlers wires the dependencies task handlers need.
func (j *JobService) InitHandlers(pruner UserPruner) {
	j.pruner = pruner
}

func (j *JobService) handleUserPruneTask(ctx context.Context, t *asynq.Task) error {
	var p UserPrunePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal user prune payload: %w", err)
	}

	j.logger.Info().
		Str("type", TaskUserPrune).
		Str("reason", p.Reason).
		Msg("processing user prune task")

	deleted, err := j.pruner.DeleteOrphans(ctx)
	if sqlerr.ErrCode(err) == sqlerr.ForeignKeyViolation {
		// A concurrent write claimed a user between the scan and the delete.
		j.logger.Warn().
			Str("type", TaskUserPrune).
			Err(err).
			Msg("orphan user was referenced again, retrying prune")
		return err
	}
	if err != nil {
		j.logger.Error().
			Str("type", TaskUserPrune).
			Err(err).
			Msg("failed to prune orphan users")
		return err
	}

	j.logger.Info().
		Str("type", TaskUserPrune).
		Int64("deleted", deleted).
		Msg("pruned orphan users")

	return nil
}
