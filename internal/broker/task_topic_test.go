package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTopicSingleDelivery(t *testing.T) {
	topic := NewTaskTopic[string]("jobs")
	topic.AddSubscriber("s1")
	topic.AddSubscriber("s2")

	topic.Publish("x")
	topic.Publish("y")
	require.True(t, topic.HasOpenTasks())

	task, ok, err := topic.Fetch("s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", task)

	task, ok, err = topic.Fetch("s2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "y", task)

	// Each task was consumed exactly once; the queue is empty.
	_, ok, err = topic.Fetch("s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, topic.HasOpenTasks())
}

func TestTaskTopicFetchUnregisteredSubscriber(t *testing.T) {
	topic := NewTaskTopic[string]("jobs")
	topic.Publish("x")

	_, _, err := topic.Fetch("ghost")
	assert.ErrorIs(t, err, ErrNotSubscriber)
	assert.True(t, topic.HasOpenTasks(), "rejected fetch must not consume")
}

func TestTaskTopicMembershipNoOps(t *testing.T) {
	topic := NewTaskTopic[string]("jobs")

	assert.True(t, topic.AddPublisher("p"))
	assert.False(t, topic.AddPublisher("p"))
	assert.True(t, topic.IsPublisher("p"))
	assert.True(t, topic.RemovePublisher("p"))
	assert.False(t, topic.RemovePublisher("p"))

	assert.True(t, topic.AddSubscriber("s"))
	assert.False(t, topic.AddSubscriber("s"))
	assert.True(t, topic.IsSubscriber("s"))
	assert.True(t, topic.RemoveSubscriber("s"))
	assert.False(t, topic.RemoveSubscriber("s"))
}

func TestTaskTopicDeliveryAccounting(t *testing.T) {
	topic := NewTaskTopic[int]("jobs")
	topic.AddSubscriber("s1")
	topic.AddSubscriber("s2")

	const published = 20
	for i := 0; i < published; i++ {
		topic.Publish(i)
	}

	fetched := 0
	for _, sub := range []string{"s1", "s2", "s1", "s2"} {
		for i := 0; i < 3; i++ {
			if _, ok, err := topic.Fetch(sub); err == nil && ok {
				fetched++
			}
		}
	}

	remaining := 0
	for {
		_, ok, err := topic.Fetch("s1")
		require.NoError(t, err)
		if !ok {
			break
		}
		remaining++
	}
	assert.Equal(t, published, fetched+remaining)
}

func TestTaskTopicModelProjection(t *testing.T) {
	topic := NewTaskTopic[string]("jobs")
	topic.AddSubscriber("b")
	topic.AddSubscriber("a")

	model := topic.Model()
	assert.Equal(t, "jobs", model.Name)
	assert.Equal(t, []string{"a", "b"}, model.Subscriber)
}
