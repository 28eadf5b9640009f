package broker

import "sync"

// OverflowPolicy controls what Enqueue does when the queue is at capacity.
type OverflowPolicy string

const (
	// OverflowBlock makes Enqueue wait until a consumer frees capacity.
	OverflowBlock OverflowPolicy = "block"

	// OverflowDropOldest evicts the oldest queued element to admit the new
	// one, so a stalled consumer costs history instead of producer latency.
	OverflowDropOldest OverflowPolicy = "drop_oldest"
)

// DefaultQueueCapacity is used when no capacity is configured.
const DefaultQueueCapacity = 4096

// Queue is a bounded multi-producer multi-consumer FIFO built on a buffered
// channel, so idle consumers park on a receive instead of polling. Ordering
// is FIFO across enqueues that happen-before each other; no fairness is
// guaranteed between concurrent consumers.
type Queue[T any] struct {
	ch     chan T
	policy OverflowPolicy

	// serializes evictions so concurrent producers under OverflowDropOldest
	// cannot drop more than necessary
	evict sync.Mutex
}

// NewQueue creates a queue with the given capacity and overflow policy.
// Non-positive capacities fall back to DefaultQueueCapacity, unknown policies
// to OverflowBlock.
func NewQueue[T any](capacity int, policy OverflowPolicy) *Queue[T] {
	if capacity < 1 {
		capacity = DefaultQueueCapacity
	}
	if policy != OverflowDropOldest {
		policy = OverflowBlock
	}
	return &Queue[T]{
		ch:     make(chan T, capacity),
		policy: policy,
	}
}

// Enqueue appends item to the tail, applying the overflow policy when the
// queue is full.
func (q *Queue[T]) Enqueue(item T) {
	if q.policy == OverflowDropOldest {
		q.evict.Lock()
		defer q.evict.Unlock()
		for {
			select {
			case q.ch <- item:
				return
			default:
			}
			// Full: give up the oldest element and retry. A concurrent
			// consumer may win the race for the head, which only means
			// nothing had to be dropped.
			select {
			case <-q.ch:
			default:
			}
		}
	}
	q.ch <- item
}

// Dequeue removes and returns the head, or reports false when the queue is
// empty. It never blocks.
func (q *Queue[T]) Dequeue() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// C exposes the consumer end of the queue for select-based blocking receives.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return len(q.ch) == 0
}

// Cap returns the configured capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
