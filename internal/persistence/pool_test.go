package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f-str/radishmq/internal/broker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingStore collects applied events and can fail selected topics.
type recordingStore struct {
	mu      sync.Mutex
	applied []broker.Event
	failOn  string
}

func (s *recordingStore) Apply(_ context.Context, ev broker.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && ev.EventName() == s.failOn {
		return errors.New("store unavailable")
	}
	s.applied = append(s.applied, ev)
	return nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func newTestQueue() *broker.Queue[broker.Envelope] {
	return broker.NewQueue[broker.Envelope](1024, broker.OverflowBlock)
}

func enqueue(q *broker.Queue[broker.Envelope], ev broker.Event) {
	q.Enqueue(broker.Envelope{ID: "test", EnqueuedAt: time.Now(), Event: ev})
}

func TestWorkerPoolDrainsQueue(t *testing.T) {
	queue := newTestQueue()
	store := &recordingStore{}
	pool := NewWorkerPool(4, queue, store, testLogger())

	for i := 0; i < 100; i++ {
		enqueue(queue, broker.CreateMessageTopicEvent{Topic: fmt.Sprintf("t%d", i)})
	}

	require.NoError(t, pool.Start(context.Background()))

	require.Eventually(t, func() bool {
		return store.count() == 100
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, queue.IsEmpty())

	require.NoError(t, pool.Stop(context.Background()))
}

func TestWorkerPoolStopDrainsBacklog(t *testing.T) {
	queue := newTestQueue()
	store := &recordingStore{}
	pool := NewWorkerPool(2, queue, store, testLogger())

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))

	// Workers have quit; a fresh pool over the same queue still applies the
	// backlog that accumulated while nothing consumed.
	for i := 0; i < 10; i++ {
		enqueue(queue, broker.CreateTaskTopicEvent{Topic: fmt.Sprintf("t%d", i)})
	}
	pool2 := NewWorkerPool(2, queue, store, testLogger())
	require.NoError(t, pool2.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool2.Stop(ctx))

	assert.Equal(t, 10, store.count())
	assert.True(t, queue.IsEmpty())
}

func TestWorkerPoolDiscardsFailedEvents(t *testing.T) {
	queue := newTestQueue()
	store := &recordingStore{failOn: broker.CreateMessageTopicEvent{}.EventName()}
	pool := NewWorkerPool(2, queue, store, testLogger())

	enqueue(queue, broker.CreateMessageTopicEvent{Topic: "broken"})
	enqueue(queue, broker.CreateTaskTopicEvent{Topic: "ok"})

	require.NoError(t, pool.Start(context.Background()))

	require.Eventually(t, func() bool {
		return queue.IsEmpty() && store.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, pool.Stop(context.Background()))

	// The failed event is gone for good; the worker kept going.
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.applied, 1)
	assert.Equal(t, broker.CreateTaskTopicEvent{Topic: "ok"}, store.applied[0])
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(1, newTestQueue(), &recordingStore{}, testLogger())
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"valid", Config{Workers: 4, MaxConnsPerWorker: 5}, nil},
		{"no workers", Config{Workers: 0, MaxConnsPerWorker: 5}, ErrInvalidWorkers},
		{"no pool budget", Config{Workers: 4, MaxConnsPerWorker: 0}, ErrInvalidPoolSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
