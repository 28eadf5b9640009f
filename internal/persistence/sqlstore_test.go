package persistence

import (
	"context"
	"testing"

	"github.com/GoCodeAlone/modular/modules/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	"github.com/f-str/radishmq/internal/broker"
)

// sqliteSchema mirrors the Postgres migrations with sqlite DDL.
const sqliteSchema = `
CREATE TABLE message_topic (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic_name TEXT NOT NULL UNIQUE,
	data_index INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE message_topic_subscriber (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_topic_id INTEGER NOT NULL REFERENCES message_topic (id) ON DELETE CASCADE,
	subscriber_name TEXT NOT NULL,
	subscriber_index INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE message_topic_publisher (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_topic_id INTEGER NOT NULL REFERENCES message_topic (id) ON DELETE CASCADE,
	publisher_name TEXT NOT NULL
);
CREATE TABLE task_topic (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic_name TEXT NOT NULL UNIQUE
);
CREATE TABLE task_topic_subscriber (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_topic_id INTEGER NOT NULL REFERENCES task_topic (id) ON DELETE CASCADE,
	subscriber_name TEXT NOT NULL
);
CREATE TABLE task_topic_publisher (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_topic_id INTEGER NOT NULL REFERENCES task_topic (id) ON DELETE CASCADE,
	publisher_name TEXT NOT NULL
);
`

func newTestStore(t *testing.T) (*SQLStore, database.DatabaseService) {
	t.Helper()

	svc, err := database.NewDatabaseService(database.ConnectionConfig{
		Driver:             "sqlite3",
		DSN:                ":memory:",
		MaxOpenConnections: 1,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Connect())
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Exec(sqliteSchema)
	require.NoError(t, err)

	return NewSQLStore(svc, testLogger()), svc
}

func apply(t *testing.T, store *SQLStore, events ...broker.Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, store.Apply(context.Background(), ev))
	}
}

func queryInt64(t *testing.T, svc database.DatabaseService, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, svc.QueryRow(query, args...).Scan(&n))
	return n
}

func TestSQLStoreMessageTopicLifecycle(t *testing.T) {
	store, svc := newTestStore(t)

	apply(t, store,
		broker.CreateMessageTopicEvent{Topic: "metrics"},
		broker.AddPublisherMessageTopicEvent{Topic: "metrics", Publisher: "p"},
		broker.AddSubscriberMessageTopicEvent{Topic: "metrics", Subscriber: "s"},
	)

	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM message_topic WHERE topic_name = $1`, "metrics"))
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM message_topic_publisher WHERE publisher_name = $1`, "p"))
	assert.Equal(t, int64(0), queryInt64(t, svc,
		`SELECT subscriber_index FROM message_topic_subscriber WHERE subscriber_name = $1`, "s"))

	apply(t, store,
		broker.RemovePublisherMessageTopicEvent{Topic: "metrics", Publisher: "p"},
		broker.RemoveSubscriberMessageTopicEvent{Topic: "metrics", Subscriber: "s"},
		broker.DeleteMessageTopicEvent{Topic: "metrics"},
	)

	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM message_topic`))
	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM message_topic_publisher`))
	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM message_topic_subscriber`))
}

func TestSQLStorePublishIncrementsIndex(t *testing.T) {
	store, svc := newTestStore(t)

	apply(t, store, broker.CreateMessageTopicEvent{Topic: "metrics"})
	apply(t, store,
		broker.PublishMessageTopicEvent{Topic: "metrics", Payloads: make([]broker.Payload, 1)},
		broker.PublishMessageTopicEvent{Topic: "metrics", Payloads: make([]broker.Payload, 3)},
	)

	assert.Equal(t, int64(4), queryInt64(t, svc,
		`SELECT data_index FROM message_topic WHERE topic_name = $1`, "metrics"))

	apply(t, store, broker.ResetIndexMessageTopicEvent{Topic: "metrics", Subtrahend: 3})
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT data_index FROM message_topic WHERE topic_name = $1`, "metrics"))
}

func TestSQLStoreSubscriberJoinsAtDurableIndex(t *testing.T) {
	store, svc := newTestStore(t)

	apply(t, store,
		broker.CreateMessageTopicEvent{Topic: "metrics"},
		broker.PublishMessageTopicEvent{Topic: "metrics", Payloads: make([]broker.Payload, 5)},
		broker.AddSubscriberMessageTopicEvent{Topic: "metrics", Subscriber: "late"},
	)

	assert.Equal(t, int64(5), queryInt64(t, svc,
		`SELECT subscriber_index FROM message_topic_subscriber WHERE subscriber_name = $1`, "late"))
}

func TestSQLStoreFetchUpdatesCursor(t *testing.T) {
	store, svc := newTestStore(t)

	apply(t, store,
		broker.CreateMessageTopicEvent{Topic: "metrics"},
		broker.AddSubscriberMessageTopicEvent{Topic: "metrics", Subscriber: "s"},
		broker.FetchDataMessageTopicEvent{Topic: "metrics", Subscriber: "s", Cursor: 42},
	)

	assert.Equal(t, int64(42), queryInt64(t, svc,
		`SELECT subscriber_index FROM message_topic_subscriber WHERE subscriber_name = $1`, "s"))
}

func TestSQLStoreTaskTopicLifecycle(t *testing.T) {
	store, svc := newTestStore(t)

	apply(t, store,
		broker.CreateTaskTopicEvent{Topic: "jobs"},
		broker.AddPublisherTaskTopicEvent{Topic: "jobs", Publisher: "p"},
		broker.AddSubscriberTaskTopicEvent{Topic: "jobs", Subscriber: "s"},
	)

	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM task_topic WHERE topic_name = $1`, "jobs"))
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM task_topic_publisher WHERE publisher_name = $1`, "p"))
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM task_topic_subscriber WHERE subscriber_name = $1`, "s"))

	apply(t, store,
		broker.RemoveSubscriberTaskTopicEvent{Topic: "jobs", Subscriber: "s"},
		broker.RemovePublisherTaskTopicEvent{Topic: "jobs", Publisher: "p"},
		broker.DeleteTaskTopicEvent{Topic: "jobs"},
	)
	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM task_topic`))
}

func TestSQLStoreTaskPublishIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	// No task_topic row exists; the no-op must still succeed.
	apply(t, store, broker.PublishTaskTopicEvent{Topic: "jobs", Payload: []byte(`"x"`)})
}

func TestSQLStoreMissingTopicRowSkipsMembership(t *testing.T) {
	store, svc := newTestStore(t)

	// The create event may still sit behind another worker; membership
	// mutations against a missing row are skipped, not failed.
	apply(t, store,
		broker.AddPublisherMessageTopicEvent{Topic: "ghost", Publisher: "p"},
		broker.AddSubscriberMessageTopicEvent{Topic: "ghost", Subscriber: "s"},
		broker.AddSubscriberTaskTopicEvent{Topic: "ghost", Subscriber: "s"},
	)

	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM message_topic_publisher`))
	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM message_topic_subscriber`))
	assert.Zero(t, queryInt64(t, svc, `SELECT COUNT(*) FROM task_topic_subscriber`))
}

// End-to-end: the worker pool drains broker events into sqlite.
func TestWorkerPoolAgainstSQLStore(t *testing.T) {
	store, svc := newTestStore(t)
	queue := newTestQueue()
	pool := NewWorkerPool(1, queue, store, testLogger())

	enqueue(queue, broker.CreateMessageTopicEvent{Topic: "metrics"})
	enqueue(queue, broker.AddPublisherMessageTopicEvent{Topic: "metrics", Publisher: "p"})
	enqueue(queue, broker.AddSubscriberMessageTopicEvent{Topic: "metrics", Subscriber: "s"})
	for i := 0; i < 10; i++ {
		enqueue(queue, broker.PublishMessageTopicEvent{Topic: "metrics", Payloads: make([]broker.Payload, 1)})
	}
	enqueue(queue, broker.CreateTaskTopicEvent{Topic: "jobs"})
	enqueue(queue, broker.AddSubscriberTaskTopicEvent{Topic: "jobs", Subscriber: "s"})

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(context.Background()))

	assert.Equal(t, int64(10), queryInt64(t, svc,
		`SELECT data_index FROM message_topic WHERE topic_name = $1`, "metrics"))
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM message_topic_subscriber`))
	assert.Equal(t, int64(1), queryInt64(t, svc,
		`SELECT COUNT(*) FROM task_topic_subscriber`))
}
