package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskUserPrune is the job type name stored in Redis.
	TaskUserPrune = "users:prune"
)

// UserPrunePayload is the JSON payload of a TaskUserPrune task.
type UserPrunePayload struct {
	Reason string `json:"reason"`
}

// NewUserPruneTask builds a low priority task that removes users no
// issue or comment refers to anymore.
func NewUserPruneTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(UserPrunePayload{Reason: reason})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskUserPrune,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
		asynq.Unique(time.Minute),
	), nil
}
