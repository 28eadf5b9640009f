package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoCodeAlone/modular"
	"github.com/GoCodeAlone/modular/modules/database"

	"github.com/f-str/radishmq/internal/broker"
)

// SQLStore mirrors broker mutations onto the relational schema through the
// database module's service. Index mutations are relative (+= / -=) so that
// out-of-order application across workers stays correct; membership rows key
// on (topic id, name) and rely on the store's own row locking.
//
// A mutation referencing a topic whose row has not landed yet (its create
// event may still be queued behind another worker) is logged and skipped;
// write-behind persistence is best-effort.
type SQLStore struct {
	db     database.DatabaseService
	logger modular.Logger
}

// NewSQLStore creates a store adapter over db.
func NewSQLStore(db database.DatabaseService, logger modular.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// Apply dispatches ev to the mutation for its variant.
func (s *SQLStore) Apply(ctx context.Context, ev broker.Event) error {
	switch e := ev.(type) {
	case broker.CreateMessageTopicEvent:
		return s.exec(ctx, `INSERT INTO message_topic (topic_name, data_index) VALUES ($1, 0)`, e.Topic)
	case broker.DeleteMessageTopicEvent:
		return s.exec(ctx, `DELETE FROM message_topic WHERE topic_name = $1`, e.Topic)
	case broker.PublishMessageTopicEvent:
		return s.exec(ctx, `UPDATE message_topic SET data_index = data_index + $1 WHERE topic_name = $2`,
			int64(len(e.Payloads)), e.Topic)
	case broker.ResetIndexMessageTopicEvent:
		return s.exec(ctx, `UPDATE message_topic SET data_index = data_index - $1 WHERE topic_name = $2`,
			e.Subtrahend, e.Topic)
	case broker.AddPublisherMessageTopicEvent:
		return s.addMessagePublisher(ctx, e.Topic, e.Publisher)
	case broker.RemovePublisherMessageTopicEvent:
		return s.exec(ctx, `DELETE FROM message_topic_publisher WHERE publisher_name = $1
			AND message_topic_id = (SELECT id FROM message_topic WHERE topic_name = $2)`,
			e.Publisher, e.Topic)
	case broker.AddSubscriberMessageTopicEvent:
		return s.addMessageSubscriber(ctx, e.Topic, e.Subscriber)
	case broker.RemoveSubscriberMessageTopicEvent:
		return s.exec(ctx, `DELETE FROM message_topic_subscriber WHERE subscriber_name = $1
			AND message_topic_id = (SELECT id FROM message_topic WHERE topic_name = $2)`,
			e.Subscriber, e.Topic)
	case broker.FetchDataMessageTopicEvent:
		return s.exec(ctx, `UPDATE message_topic_subscriber SET subscriber_index = $1
			WHERE subscriber_name = $2
			AND message_topic_id = (SELECT id FROM message_topic WHERE topic_name = $3)`,
			e.Cursor, e.Subscriber, e.Topic)
	case broker.CreateTaskTopicEvent:
		return s.exec(ctx, `INSERT INTO task_topic (topic_name) VALUES ($1)`, e.Topic)
	case broker.DeleteTaskTopicEvent:
		return s.exec(ctx, `DELETE FROM task_topic WHERE topic_name = $1`, e.Topic)
	case broker.PublishTaskTopicEvent:
		// Task payloads are not durable; the event exists so the pipeline
		// stays uniform and the drop is an explicit decision here rather
		// than a missing case.
		return nil
	case broker.AddPublisherTaskTopicEvent:
		return s.addTaskMember(ctx, "task_topic_publisher", "publisher_name", e.Topic, e.Publisher)
	case broker.RemovePublisherTaskTopicEvent:
		return s.exec(ctx, `DELETE FROM task_topic_publisher WHERE publisher_name = $1
			AND task_topic_id = (SELECT id FROM task_topic WHERE topic_name = $2)`,
			e.Publisher, e.Topic)
	case broker.AddSubscriberTaskTopicEvent:
		return s.addTaskMember(ctx, "task_topic_subscriber", "subscriber_name", e.Topic, e.Subscriber)
	case broker.RemoveSubscriberTaskTopicEvent:
		return s.exec(ctx, `DELETE FROM task_topic_subscriber WHERE subscriber_name = $1
			AND task_topic_id = (SELECT id FROM task_topic WHERE topic_name = $2)`,
			e.Subscriber, e.Topic)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.EventName())
	}
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store mutation failed: %w", err)
	}
	return nil
}

func (s *SQLStore) addMessagePublisher(ctx context.Context, topic, publisher string) error {
	id, _, ok, err := s.lookupMessageTopic(ctx, topic)
	if err != nil || !ok {
		return err
	}
	return s.exec(ctx, `INSERT INTO message_topic_publisher (message_topic_id, publisher_name) VALUES ($1, $2)`,
		id, publisher)
}

// addMessageSubscriber seeds the subscriber row with the topic's durable
// index, mirroring the in-memory join-at-current-index rule.
func (s *SQLStore) addMessageSubscriber(ctx context.Context, topic, subscriber string) error {
	id, index, ok, err := s.lookupMessageTopic(ctx, topic)
	if err != nil || !ok {
		return err
	}
	return s.exec(ctx, `INSERT INTO message_topic_subscriber (message_topic_id, subscriber_name, subscriber_index) VALUES ($1, $2, $3)`,
		id, subscriber, index)
}

func (s *SQLStore) lookupMessageTopic(ctx context.Context, topic string) (id int64, index int64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, data_index FROM message_topic WHERE topic_name = $1`, topic)
	if err := row.Scan(&id, &index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("store: message topic row missing, skipping membership mutation", "topic", topic)
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("store lookup failed: %w", err)
	}
	return id, index, true, nil
}

func (s *SQLStore) addTaskMember(ctx context.Context, table, column, topic, name string) error {
	var id int64
	row := s.db.QueryRowContext(ctx, `SELECT id FROM task_topic WHERE topic_name = $1`, topic)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("store: task topic row missing, skipping membership mutation", "topic", topic)
			return nil
		}
		return fmt.Errorf("store lookup failed: %w", err)
	}
	// table and column come from the dispatch above, never from input.
	query := fmt.Sprintf(`INSERT INTO %s (task_topic_id, %s) VALUES ($1, $2)`, table, column)
	return s.exec(ctx, query, id, name)
}
