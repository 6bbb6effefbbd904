// Package tasks moves slow side effects, mostly email, off the request path.
// Requests enqueue a Job; a worker started by the server dispatches it to
// the handler registered under its name.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"quill/internal/metrics"

	"go.uber.org/zap"
)

const (
	JobNewAccountEmail    = "email.new_account"
	JobResetPasswordEmail = "email.reset_password"
	JobNewsletterEmail    = "email.newsletter"
)

var ErrQueueFull = errors.New("task queue is full")

// Job is a named unit of work with a flat string payload.
type Job struct {
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Runner is a queue that also consumes its own jobs until ctx ends.
type Runner interface {
	Queue
	Run(ctx context.Context)
}

type HandlerFunc func(ctx context.Context, payload map[string]string) error

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc), log: log}
}

func (r *Registry) Handle(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Dispatch runs the handler for job. Jobs nobody handles are logged and
// dropped; handler errors are logged and returned. There are no retries.
func (r *Registry) Dispatch(ctx context.Context, job Job) error {
	r.mu.RLock()
	fn, ok := r.handlers[job.Name]
	r.mu.RUnlock()

	if !ok {
		r.log.Warn("dropping job without handler", zap.String("job", job.Name))
		metrics.JobProcessed(job.Name, "unknown", 0)
		return nil
	}

	start := time.Now()
	err := fn(ctx, job.Payload)
	if err != nil {
		r.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		metrics.JobProcessed(job.Name, "error", time.Since(start))
		return err
	}
	metrics.JobProcessed(job.Name, "ok", time.Since(start))
	return nil
}
