package broker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessageTopicPublishAdvancesIndex(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())

	reset, err := topic.Publish("a")
	require.NoError(t, err)
	assert.Zero(t, reset)
	assert.Equal(t, int64(1), topic.Index())

	reset, err = topic.Publish("b")
	require.NoError(t, err)
	assert.Zero(t, reset)
	assert.Equal(t, int64(2), topic.Index())
}

func TestMessageTopicPublishMultipleAtomic(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	topic.AddSubscriber("s")

	reset, err := topic.PublishMultiple([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Zero(t, reset)
	assert.Equal(t, int64(3), topic.Index())

	data, cursor, err := topic.Fetch("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, data)
	assert.Equal(t, int64(3), cursor)
}

func TestMessageTopicPublishMultipleEmpty(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())

	reset, err := topic.PublishMultiple(nil)
	require.NoError(t, err)
	assert.Zero(t, reset)
	assert.Zero(t, topic.Index())
}

func TestMessageTopicSubscriberJoinsAtCurrentIndex(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	_, _ = topic.Publish("a")
	_, _ = topic.Publish("b")
	_, _ = topic.Publish("c")

	require.True(t, topic.AddSubscriber("late"))

	hasNew, err := topic.NewDataToFetch("late")
	require.NoError(t, err)
	assert.False(t, hasNew, "new subscribers must not see history")

	data, cursor, err := topic.Fetch("late")
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, int64(3), cursor)
}

func TestMessageTopicFanOut(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	topic.AddSubscriber("s1")
	_, _ = topic.Publish("a")
	_, _ = topic.Publish("b")
	topic.AddSubscriber("s2")
	_, _ = topic.Publish("c")

	data1, _, err := topic.Fetch("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, data1)

	data2, _, err := topic.Fetch("s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, data2)

	// Both cursors are now at the head.
	for _, sub := range []string{"s1", "s2"} {
		hasNew, err := topic.NewDataToFetch(sub)
		require.NoError(t, err)
		assert.False(t, hasNew)
	}
}

func TestMessageTopicFetchUnknownSubscriber(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())

	_, _, err := topic.Fetch("ghost")
	assert.ErrorIs(t, err, ErrNotSubscriber)

	_, err = topic.NewDataToFetch("ghost")
	assert.ErrorIs(t, err, ErrNotSubscriber)
}

func TestMessageTopicMembershipNoOps(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())

	assert.True(t, topic.AddPublisher("p"))
	assert.False(t, topic.AddPublisher("p"), "duplicate add is a no-op")
	assert.True(t, topic.IsPublisher("p"))
	assert.True(t, topic.RemovePublisher("p"))
	assert.False(t, topic.RemovePublisher("p"), "absent remove is a no-op")

	assert.True(t, topic.AddSubscriber("s"))
	assert.False(t, topic.AddSubscriber("s"))
	assert.True(t, topic.IsSubscriber("s"))
	assert.True(t, topic.RemoveSubscriber("s"))
	assert.False(t, topic.RemoveSubscriber("s"))
}

func TestMessageTopicCompactionPreservesUndelivered(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	topic.maxIndex = 4

	topic.AddSubscriber("fast")
	topic.AddSubscriber("slow")

	for _, payload := range []string{"a", "b", "c"} {
		_, err := topic.Publish(payload)
		require.NoError(t, err)
	}

	// fast catches up, slow stays at cursor 0.
	_, _, err := topic.Fetch("fast")
	require.NoError(t, err)

	_, err = topic.Publish("d")
	require.NoError(t, err) // index reaches the ceiling, no overflow yet

	// The next publish overflows; nothing can be dropped while slow still
	// waits at cursor 0, so the compaction gains nothing and the publish
	// fails silently.
	_, err = topic.Publish("e")
	assert.ErrorIs(t, err, ErrIndexExhausted)
	assert.Equal(t, int64(4), topic.Index(), "failed publish must not mutate")

	// Once both subscribers drain, compaction reclaims the full log.
	data, _, err := topic.Fetch("slow")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, data)

	_, _, err = topic.Fetch("fast")
	require.NoError(t, err)

	reset, err := topic.Publish("e")
	require.NoError(t, err)
	assert.Equal(t, int64(4), reset, "compaction drops the delivered prefix")
	assert.Equal(t, int64(1), topic.Index())

	// Undelivered distance survived the reset for both subscribers.
	hasNew, err := topic.NewDataToFetch("slow")
	require.NoError(t, err)
	assert.True(t, hasNew)

	data, _, err = topic.Fetch("slow")
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, data)
}

func TestMessageTopicCompactionWithoutSubscribersDropsAll(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	topic.maxIndex = 2

	_, err := topic.Publish("a")
	require.NoError(t, err)
	_, err = topic.Publish("b")
	require.NoError(t, err)

	// No subscribers: the whole log is undeliverable and gets dropped.
	reset, err := topic.Publish("c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), reset)
	assert.Equal(t, int64(1), topic.Index())

	// A joiner after the reset still sees nothing historical.
	topic.AddSubscriber("s")
	data, _, err := topic.Fetch("s")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMessageTopicModelProjection(t *testing.T) {
	topic := NewMessageTopic[string]("metrics", testLogger())
	topic.AddSubscriber("b")
	topic.AddSubscriber("a")
	_, _ = topic.Publish("x")

	model := topic.Model()
	assert.Equal(t, "metrics", model.Name)
	assert.Equal(t, int64(1), model.Index)
	assert.Equal(t, []string{"a", "b"}, model.Subscriber, "names sorted, cursors dropped")
}
