package broker

import (
	"math"
	"sort"
	"sync"

	"github.com/GoCodeAlone/modular"
)

// MessageTopic is an append-only fan-out log. Every subscriber owns a cursor
// into the log and receives every payload published after it joined; fetching
// returns the undelivered suffix and advances the cursor to the head.
//
// The index and all cursors share one monotonically growing coordinate space.
// Between compactions index == len(data), so a cursor doubles as a position
// in the data slice. One lock guards all fields, which makes every operation
// a single atomic check-and-act.
type MessageTopic[T any] struct {
	mu sync.RWMutex

	name       string
	data       []T
	index      int64
	cursors    map[string]int64
	publishers stringSet

	// maxIndex is the coordinate ceiling that forces compaction. Production
	// topics use math.MaxInt64; tests lower it to reach the reset path.
	maxIndex int64

	logger modular.Logger
}

// NewMessageTopic creates an empty message topic.
func NewMessageTopic[T any](name string, logger modular.Logger) *MessageTopic[T] {
	return &MessageTopic[T]{
		name:       name,
		cursors:    make(map[string]int64),
		publishers: make(stringSet),
		maxIndex:   math.MaxInt64,
		logger:     logger,
	}
}

// Name returns the topic name.
func (t *MessageTopic[T]) Name() string {
	return t.name
}

// Index returns the current topic index.
func (t *MessageTopic[T]) Index() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.index
}

// Publish appends payload to the log and advances the index by one. The
// returned subtrahend is non-zero when an index reset had to run to make
// room; the caller mirrors it to the store. ErrIndexExhausted means the
// payload was dropped because even a reset could not reclaim room.
func (t *MessageTopic[T]) Publish(payload T) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	reset, err := t.makeRoom(1)
	if err != nil {
		return reset, err
	}
	t.data = append(t.data, payload)
	t.index++
	return reset, nil
}

// PublishMultiple appends all payloads and advances the index by their count,
// atomically: either every payload lands, or none does.
func (t *MessageTopic[T]) PublishMultiple(payloads []T) (int64, error) {
	if len(payloads) == 0 {
		return 0, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	n := int64(len(payloads))
	reset, err := t.makeRoom(n)
	if err != nil {
		return reset, err
	}
	t.data = append(t.data, payloads...)
	t.index += n
	return reset, nil
}

// makeRoom runs a compaction when advancing the index by n would pass the
// ceiling. It returns the applied subtrahend, plus ErrIndexExhausted when the
// compaction freed nothing usable. Caller holds the write lock.
func (t *MessageTopic[T]) makeRoom(n int64) (int64, error) {
	if t.index <= t.maxIndex-n {
		return 0, nil
	}
	m := t.compact()
	if t.index > t.maxIndex-n {
		t.logger.Warn("message topic index exhausted, dropping publish",
			"topic", t.name, "index", t.index, "count", n)
		return m, ErrIndexExhausted
	}
	return m, nil
}

// compact drops every already-delivered element and subtracts the drop count
// from the index and from every cursor, preserving each subscriber's set of
// undelivered elements and their order. With no subscribers everything
// buffered is undeliverable (new subscribers join at the current index), so
// the whole log is dropped. Caller holds the write lock.
func (t *MessageTopic[T]) compact() int64 {
	m := t.index
	for _, cursor := range t.cursors {
		if cursor < m {
			m = cursor
		}
	}
	if m == 0 {
		return 0
	}

	t.data = append([]T(nil), t.data[m:]...)
	t.index -= m
	for name := range t.cursors {
		t.cursors[name] -= m
	}
	t.logger.Info("compacted message topic",
		"topic", t.name, "subtrahend", m, "index", t.index)
	return m
}

// AddPublisher registers name as an authorized publisher and reports whether
// it was newly added.
func (t *MessageTopic[T]) AddPublisher(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.publishers.add(name)
}

// RemovePublisher revokes name and reports whether it was registered.
func (t *MessageTopic[T]) RemovePublisher(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.publishers.remove(name)
}

// IsPublisher reports whether name may publish to this topic.
func (t *MessageTopic[T]) IsPublisher(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.publishers.has(name)
}

// AddSubscriber registers name with its cursor at the current index, so it
// never receives payloads published before it joined. Reports whether the
// subscriber was newly added.
func (t *MessageTopic[T]) AddSubscriber(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.cursors[name]; ok {
		return false
	}
	t.cursors[name] = t.index
	return true
}

// RemoveSubscriber drops name's cursor and reports whether it existed.
func (t *MessageTopic[T]) RemoveSubscriber(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.cursors[name]; !ok {
		return false
	}
	delete(t.cursors, name)
	return true
}

// IsSubscriber reports whether name is subscribed.
func (t *MessageTopic[T]) IsSubscriber(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.cursors[name]
	return ok
}

// NewDataToFetch reports whether name's cursor is behind the index.
func (t *MessageTopic[T]) NewDataToFetch(name string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cursor, ok := t.cursors[name]
	if !ok {
		return false, ErrNotSubscriber
	}
	return cursor < t.index, nil
}

// Fetch returns the payloads published since name's last fetch, in publish
// order, and advances the cursor to the index. The returned cursor is the
// new absolute read position for the durable mirror. Fetched elements count
// as delivered even if the caller never processes them.
func (t *MessageTopic[T]) Fetch(name string) ([]T, int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cursor, ok := t.cursors[name]
	if !ok {
		return nil, 0, ErrNotSubscriber
	}
	pending := t.data[cursor:]
	out := make([]T, len(pending))
	copy(out, pending)
	t.cursors[name] = t.index
	return out, t.index, nil
}

// Model projects the topic for read APIs.
func (t *MessageTopic[T]) Model() MessageTopicModel {
	t.mu.RLock()
	defer t.mu.RUnlock()

	subs := make([]string, 0, len(t.cursors))
	for name := range t.cursors {
		subs = append(subs, name)
	}
	sort.Strings(subs)
	return MessageTopicModel{Name: t.name, Index: t.index, Subscriber: subs}
}
