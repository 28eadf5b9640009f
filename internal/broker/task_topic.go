package broker

import "sync"

// TaskTopic is a single-consumption work queue. Published tasks are delivered
// to at most one subscriber: whichever registered subscriber fetches first
// pops the head. There are no cursors and no redelivery.
type TaskTopic[T any] struct {
	mu sync.RWMutex

	name        string
	data        []T
	subscribers stringSet
	publishers  stringSet
}

// NewTaskTopic creates an empty task topic.
func NewTaskTopic[T any](name string) *TaskTopic[T] {
	return &TaskTopic[T]{
		name:        name,
		subscribers: make(stringSet),
		publishers:  make(stringSet),
	}
}

// Name returns the topic name.
func (t *TaskTopic[T]) Name() string {
	return t.name
}

// Publish appends a task to the tail of the queue.
func (t *TaskTopic[T]) Publish(payload T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = append(t.data, payload)
}

// HasOpenTasks reports whether any task is waiting to be fetched.
func (t *TaskTopic[T]) HasOpenTasks() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data) > 0
}

// Fetch pops and returns the head of the queue for the given subscriber. The
// second result is false when no task is waiting. Unregistered subscribers
// may not fetch.
func (t *TaskTopic[T]) Fetch(name string) (T, bool, error) {
	var zero T

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.subscribers.has(name) {
		return zero, false, ErrNotSubscriber
	}
	if len(t.data) == 0 {
		return zero, false, nil
	}
	task := t.data[0]
	t.data[0] = zero
	t.data = t.data[1:]
	if len(t.data) == 0 {
		t.data = nil
	}
	return task, true, nil
}

// AddSubscriber registers name and reports whether it was newly added.
func (t *TaskTopic[T]) AddSubscriber(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscribers.add(name)
}

// RemoveSubscriber drops name and reports whether it was registered.
func (t *TaskTopic[T]) RemoveSubscriber(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscribers.remove(name)
}

// IsSubscriber reports whether name is subscribed.
func (t *TaskTopic[T]) IsSubscriber(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.subscribers.has(name)
}

// AddPublisher registers name as an authorized publisher and reports whether
// it was newly added.
func (t *TaskTopic[T]) AddPublisher(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.publishers.add(name)
}

// RemovePublisher revokes name and reports whether it was registered.
func (t *TaskTopic[T]) RemovePublisher(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.publishers.remove(name)
}

// IsPublisher reports whether name may publish to this topic.
func (t *TaskTopic[T]) IsPublisher(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.publishers.has(name)
}

// Model projects the topic for read APIs.
func (t *TaskTopic[T]) Model() TaskTopicModel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TaskTopicModel{Name: t.name, Subscriber: t.subscribers.names()}
}
