// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - tasks are enqueued (producer) with asynq.Client
//   - a server runs workers that process them (consumer) with asynq.Server
package job

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/gitminer/internal/config"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// pruner is set by InitHandlers before Start.
	pruner UserPruner
}

// NewJobService creates a JobService on the Redis instance from cfg.
//
// Maintenance tasks run on the "low" queue; weights keep them from
// starving anything enqueued on "critical" or "default".
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// Start registers task handlers and starts the worker server in the background.
func (j *JobService) Start() error {
	if j.pruner == nil {
		return errors.New("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskUserPrune, j.handleUserPruneTask)

	j.logger.Info().Msg("starting background job server")

	return j.server.Start(mux)
}

// Stop gracefully stops the job server and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job client")
	}
}

// Close releases the enqueue client. Use it instead of Stop when the
// worker server never started.
func (j *JobService) Close() error {
	return j.Client.Close()
}

// EnqueueUserPrune schedules an orphan user sweep. Bursts of deletes
// collapse into a single task.
func (j *JobService) EnqueueUserPrune(ctx context.Context, reason string) error {
	task, err := NewUserPruneTask(reason)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("enqueued user prune task")
	return nil
}
