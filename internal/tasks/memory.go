package tasks

import (
	"context"

	"quill/internal/metrics"

	"go.uber.org/zap"
)

// MemoryQueue is an in-process queue backed by a buffered channel. Jobs
// still buffered when the process exits are lost.
type MemoryQueue struct {
	jobs     chan Job
	registry *Registry
	log      *zap.Logger
}

func NewMemoryQueue(size int, registry *Registry, log *zap.Logger) *MemoryQueue {
	return &MemoryQueue{
		jobs:     make(chan Job, size),
		registry: registry,
		log:      log,
	}
}

// Enqueue never blocks; a full buffer is reported as ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		metrics.JobEnqueued(job.Name)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		q.log.Warn("task queue full, dropping job", zap.String("job", job.Name))
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			_ = q.registry.Dispatch(ctx, job)
		}
	}
}
