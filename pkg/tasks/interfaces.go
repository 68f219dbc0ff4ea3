package tasks

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer hands tasks to the queue. *asynq.Client satisfies it;
// tests substitute a recorder.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
