package persistence

import (
	"context"
	"sync"

	"github.com/GoCodeAlone/modular"

	"github.com/f-str/radishmq/internal/broker"
)

// WorkerPool drains the broker's event queue with a fixed set of goroutines.
// Workers park on the queue channel while idle. On Stop each worker finishes
// its in-flight event, drains whatever backlog is immediately available, and
// exits; Stop honors the caller's deadline and cancels outstanding store
// calls once it expires.
//
// Store failures are logged with the envelope ID and the event is discarded.
// There is no retry and no dead-letter; the durable mirror is best-effort.
type WorkerPool struct {
	workers int
	queue   *broker.Queue[broker.Envelope]
	store   Store
	logger  modular.Logger

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// storeCtx outlives the quit signal so draining workers can still write;
	// it is cancelled only when Stop gives up waiting.
	storeCtx    context.Context
	storeCancel context.CancelFunc
}

// NewWorkerPool creates a pool of workers consuming queue into store.
func NewWorkerPool(workers int, queue *broker.Queue[broker.Envelope], store Store, logger modular.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers:     workers,
		queue:       queue,
		store:       store,
		logger:      logger,
		quit:        make(chan struct{}),
		storeCtx:    ctx,
		storeCancel: cancel,
	}
}

// Start spawns the workers.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.logger.Info("starting persistence workers", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Stop signals the workers to drain and exit, waiting up to the caller's
// deadline before cancelling in-flight store calls.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.quit) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.storeCancel()
		p.logger.Info("persistence workers stopped", "remaining_events", p.queue.Len())
		return nil
	case <-ctx.Done():
		p.storeCancel()
		p.logger.Warn("persistence workers did not drain before deadline",
			"remaining_events", p.queue.Len())
		<-done
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("persistence worker started", "worker", id)

	for {
		select {
		case <-p.quit:
			p.drain(id)
			p.logger.Debug("persistence worker stopped", "worker", id)
			return
		case env := <-p.queue.C():
			p.apply(id, env)
		}
	}
}

// drain applies everything immediately available without blocking for new
// events. Concurrent workers race for the remaining envelopes, which is fine:
// each Dequeue hands an envelope to exactly one of them.
func (p *WorkerPool) drain(id int) {
	for {
		env, ok := p.queue.Dequeue()
		if !ok {
			return
		}
		p.apply(id, env)
	}
}

func (p *WorkerPool) apply(id int, env broker.Envelope) {
	if err := p.store.Apply(p.storeCtx, env.Event); err != nil {
		p.logger.Error("store mutation failed, discarding event",
			"worker", id, "event", env.Event.EventName(), "event_id", env.ID, "error", err)
		return
	}
	p.logger.Debug("applied persistence event",
		"worker", id, "event", env.Event.EventName(), "event_id", env.ID)
}
