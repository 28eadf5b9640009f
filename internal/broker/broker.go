// Package broker implements the in-memory publish/subscribe engine: fan-out
// message topics with per-subscriber cursors, single-consumption task topics,
// and the write-behind event queue that feeds the persistence workers.
//
// Every mutating operation follows the same discipline: locate the topic,
// validate the precondition, apply the in-memory mutation, then enqueue the
// persistence event describing it. Precondition violations are logged and
// surfaced as sentinel errors; they never enqueue an event.
package broker

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/GoCodeAlone/modular"
)

// Payload is the payload type served over the wire: raw JSON, opaque to the
// engine.
type Payload = json.RawMessage

// Broker owns the topic registries and the shared persistence event queue.
// The registries are guarded independently; each topic carries its own guard,
// so broker methods hold a registry lock only long enough to resolve a name.
type Broker struct {
	mtMu          sync.RWMutex
	messageTopics map[string]*MessageTopic[Payload]

	ttMu       sync.RWMutex
	taskTopics map[string]*TaskTopic[Payload]

	queue  *Queue[Envelope]
	logger modular.Logger
}

// New creates a broker with an event queue sized and policed by cfg.
func New(cfg *Config, logger modular.Logger) *Broker {
	return &Broker{
		messageTopics: make(map[string]*MessageTopic[Payload]),
		taskTopics:    make(map[string]*TaskTopic[Payload]),
		queue:         NewQueue[Envelope](cfg.EventQueueCapacity, OverflowPolicy(cfg.EventQueueOverflow)),
		logger:        logger,
	}
}

// Events returns the shared persistence event queue. The persistence worker
// pool is its only consumer.
func (b *Broker) Events() *Queue[Envelope] {
	return b.queue
}

// enqueue wraps ev and places it on the shared queue. Always called after the
// in-memory mutation it describes. The enqueue runs outside any topic lock so
// a full queue under the block policy can never stall topic reads; ordering
// across concurrent writers is covered by the store's commutative mutations.
func (b *Broker) enqueue(ev Event) {
	env := newEnvelope(ev)
	b.queue.Enqueue(env)
	b.logger.Debug("enqueued persistence event", "event", ev.EventName(), "event_id", env.ID)
}

func (b *Broker) findMessageTopic(name string) (*MessageTopic[Payload], bool) {
	b.mtMu.RLock()
	defer b.mtMu.RUnlock()
	t, ok := b.messageTopics[name]
	return t, ok
}

func (b *Broker) findTaskTopic(name string) (*TaskTopic[Payload], bool) {
	b.ttMu.RLock()
	defer b.ttMu.RUnlock()
	t, ok := b.taskTopics[name]
	return t, ok
}

// ListMessageTopics projects every message topic, sorted by name.
func (b *Broker) ListMessageTopics() []MessageTopicModel {
	b.mtMu.RLock()
	topics := make([]*MessageTopic[Payload], 0, len(b.messageTopics))
	for _, t := range b.messageTopics {
		topics = append(topics, t)
	}
	b.mtMu.RUnlock()

	models := make([]MessageTopicModel, 0, len(topics))
	for _, t := range topics {
		models = append(models, t.Model())
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models
}

// ListTaskTopics projects every task topic, sorted by name.
func (b *Broker) ListTaskTopics() []TaskTopicModel {
	b.ttMu.RLock()
	topics := make([]*TaskTopic[Payload], 0, len(b.taskTopics))
	for _, t := range b.taskTopics {
		topics = append(topics, t)
	}
	b.ttMu.RUnlock()

	models := make([]TaskTopicModel, 0, len(topics))
	for _, t := range topics {
		models = append(models, t.Model())
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models
}
