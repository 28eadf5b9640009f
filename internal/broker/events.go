package broker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event describes one committed in-memory mutation for asynchronous
// application to the durable store. Variants are immutable once constructed
// and carry the full argument set of the originating broker call. The store
// adapter dispatches on the concrete type.
type Event interface {
	// EventName identifies the variant in logs and dispatch diagnostics.
	EventName() string
}

// Envelope wraps a queued event with correlation metadata so one mutation can
// be traced from enqueue through worker to store across log lines.
type Envelope struct {
	ID         string
	EnqueuedAt time.Time
	Event      Event
}

func newEnvelope(ev Event) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		EnqueuedAt: time.Now(),
		Event:      ev,
	}
}

// Message topic events.

// CreateMessageTopicEvent records the creation of a message topic.
type CreateMessageTopicEvent struct {
	Topic string
}

// DeleteMessageTopicEvent records the deletion of a message topic.
type DeleteMessageTopicEvent struct {
	Topic string
}

// PublishMessageTopicEvent records one publish call. The payload count drives
// the durable index increment; payload bodies are never persisted.
type PublishMessageTopicEvent struct {
	Topic    string
	Payloads []json.RawMessage
}

// AddPublisherMessageTopicEvent records a publisher registration.
type AddPublisherMessageTopicEvent struct {
	Topic     string
	Publisher string
}

// RemovePublisherMessageTopicEvent records a publisher removal.
type RemovePublisherMessageTopicEvent struct {
	Topic     string
	Publisher string
}

// AddSubscriberMessageTopicEvent records a subscription. The store derives
// the initial cursor from the durable topic index.
type AddSubscriberMessageTopicEvent struct {
	Topic      string
	Subscriber string
}

// RemoveSubscriberMessageTopicEvent records an unsubscription.
type RemoveSubscriberMessageTopicEvent struct {
	Topic      string
	Subscriber string
}

// FetchDataMessageTopicEvent records a completed fetch; Cursor is the new
// absolute read position.
type FetchDataMessageTopicEvent struct {
	Topic      string
	Subscriber string
	Cursor     int64
}

// ResetIndexMessageTopicEvent records an index compaction; the store mirrors
// the subtraction.
type ResetIndexMessageTopicEvent struct {
	Topic      string
	Subtrahend int64
}

// Task topic events.

// CreateTaskTopicEvent records the creation of a task topic.
type CreateTaskTopicEvent struct {
	Topic string
}

// DeleteTaskTopicEvent records the deletion of a task topic.
type DeleteTaskTopicEvent struct {
	Topic string
}

// PublishTaskTopicEvent records a task publish. Task payloads are not
// persisted; the store treats this variant as a no-op.
type PublishTaskTopicEvent struct {
	Topic   string
	Payload json.RawMessage
}

// AddPublisherTaskTopicEvent records a publisher registration.
type AddPublisherTaskTopicEvent struct {
	Topic     string
	Publisher string
}

// RemovePublisherTaskTopicEvent records a publisher removal.
type RemovePublisherTaskTopicEvent struct {
	Topic     string
	Publisher string
}

// AddSubscriberTaskTopicEvent records a subscription.
type AddSubscriberTaskTopicEvent struct {
	Topic      string
	Subscriber string
}

// RemoveSubscriberTaskTopicEvent records an unsubscription.
type RemoveSubscriberTaskTopicEvent struct {
	Topic      string
	Subscriber string
}

func (CreateMessageTopicEvent) EventName() string  { return "create_message_topic" }
func (DeleteMessageTopicEvent) EventName() string  { return "delete_message_topic" }
func (PublishMessageTopicEvent) EventName() string { return "publish_message_topic" }
func (AddPublisherMessageTopicEvent) EventName() string {
	return "add_publisher_message_topic"
}
func (RemovePublisherMessageTopicEvent) EventName() string {
	return "remove_publisher_message_topic"
}
func (AddSubscriberMessageTopicEvent) EventName() string {
	return "add_subscriber_message_topic"
}
func (RemoveSubscriberMessageTopicEvent) EventName() string {
	return "remove_subscriber_message_topic"
}
func (FetchDataMessageTopicEvent) EventName() string { return "fetch_data_message_topic" }
func (ResetIndexMessageTopicEvent) EventName() string {
	return "reset_index_message_topic"
}
func (CreateTaskTopicEvent) EventName() string  { return "create_task_topic" }
func (DeleteTaskTopicEvent) EventName() string  { return "delete_task_topic" }
func (PublishTaskTopicEvent) EventName() string { return "publish_task_topic" }
func (AddPublisherTaskTopicEvent) EventName() string {
	return "add_publisher_task_topic"
}
func (RemovePublisherTaskTopicEvent) EventName() string {
	return "remove_publisher_task_topic"
}
func (AddSubscriberTaskTopicEvent) EventName() string {
	return "add_subscriber_task_topic"
}
func (RemoveSubscriberTaskTopicEvent) EventName() string {
	return "remove_subscriber_task_topic"
}
