package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryQueueDispatches(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	got := make(chan map[string]string, 1)
	reg.Handle(JobNewAccountEmail, func(ctx context.Context, payload map[string]string) error {
		got <- payload
		return nil
	})

	q := NewMemoryQueue(4, reg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	require.NoError(t, q.Enqueue(ctx, Job{Name: JobNewAccountEmail, Payload: map[string]string{"email": "ada@example.com"}}))

	select {
	case payload := <-got:
		assert.Equal(t, "ada@example.com", payload["email"])
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dispatched")
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(1, NewRegistry(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{Name: "a"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Name: "b"}), ErrQueueFull)
}

func TestMemoryQueueStopsOnCancel(t *testing.T) {
	q := NewMemoryQueue(1, NewRegistry(zap.NewNop()), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Run(ctx)
	}()
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestDispatchUnknownJobIsDropped(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.NoError(t, reg.Dispatch(context.Background(), Job{Name: "nope"}))
}

func TestDispatchReturnsHandlerError(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	boom := errors.New("smtp down")
	reg.Handle("fail", func(context.Context, map[string]string) error { return boom })

	assert.ErrorIs(t, reg.Dispatch(context.Background(), Job{Name: "fail"}), boom)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("not a url")
	assert.Error(t, err)

	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()
}
