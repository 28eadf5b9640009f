package broker

// CreateTaskTopic registers a new task topic and returns its projection.
func (b *Broker) CreateTaskTopic(name string) (TaskTopicModel, error) {
	b.ttMu.Lock()
	if _, exists := b.taskTopics[name]; exists {
		b.ttMu.Unlock()
		b.logger.Warn("create task topic: topic already exists", "topic", name)
		return TaskTopicModel{}, ErrTopicAlreadyExists
	}
	topic := NewTaskTopic[Payload](name)
	b.taskTopics[name] = topic
	b.ttMu.Unlock()

	b.enqueue(CreateTaskTopicEvent{Topic: name})
	return topic.Model(), nil
}

// DeleteTaskTopic removes a task topic. Queued tasks that were never fetched
// are discarded with it.
func (b *Broker) DeleteTaskTopic(name string) error {
	b.ttMu.Lock()
	if _, exists := b.taskTopics[name]; !exists {
		b.ttMu.Unlock()
		b.logger.Warn("delete task topic: topic does not exist", "topic", name)
		return ErrTopicNotFound
	}
	delete(b.taskTopics, name)
	b.ttMu.Unlock()

	b.enqueue(DeleteTaskTopicEvent{Topic: name})
	return nil
}

// LookupTaskTopic projects a single task topic.
func (b *Broker) LookupTaskTopic(name string) (TaskTopicModel, error) {
	topic, ok := b.findTaskTopic(name)
	if !ok {
		return TaskTopicModel{}, ErrTopicNotFound
	}
	return topic.Model(), nil
}

// PublishToTaskTopic appends a task to the topic queue. Only registered
// publishers may publish.
func (b *Broker) PublishToTaskTopic(topic, publisher string, payload Payload) error {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("publish to task topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.IsPublisher(publisher) {
		b.logger.Warn("publish to task topic: not a registered publisher",
			"topic", topic, "publisher", publisher)
		return ErrNotPublisher
	}
	t.Publish(payload)
	b.enqueue(PublishTaskTopicEvent{Topic: topic, Payload: payload})
	return nil
}

// AddPublisherToTaskTopic authorizes publisher on the topic.
func (b *Broker) AddPublisherToTaskTopic(topic, publisher string) error {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("add publisher to task topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.AddPublisher(publisher) {
		b.logger.Warn("add publisher to task topic: already a publisher",
			"topic", topic, "publisher", publisher)
		return ErrAlreadyPublisher
	}
	b.enqueue(AddPublisherTaskTopicEvent{Topic: topic, Publisher: publisher})
	return nil
}

// RemovePublisherFromTaskTopic revokes publisher on the topic.
func (b *Broker) RemovePublisherFromTaskTopic(topic, publisher string) error {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("remove publisher from task topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.RemovePublisher(publisher) {
		b.logger.Warn("remove publisher from task topic: not a publisher",
			"topic", topic, "publisher", publisher)
		return ErrNotPublisher
	}
	b.enqueue(RemovePublisherTaskTopicEvent{Topic: topic, Publisher: publisher})
	return nil
}

// AddSubscriberToTaskTopic registers subscriber as a task consumer.
func (b *Broker) AddSubscriberToTaskTopic(topic, subscriber string) error {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("add subscriber to task topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.AddSubscriber(subscriber) {
		b.logger.Warn("add subscriber to task topic: already subscribed",
			"topic", topic, "subscriber", subscriber)
		return ErrAlreadySubscriber
	}
	b.enqueue(AddSubscriberTaskTopicEvent{Topic: topic, Subscriber: subscriber})
	return nil
}

// RemoveSubscriberFromTaskTopic drops subscriber from the consumer set.
func (b *Broker) RemoveSubscriberFromTaskTopic(topic, subscriber string) error {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("remove subscriber from task topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.RemoveSubscriber(subscriber) {
		b.logger.Warn("remove subscriber from task topic: not subscribed",
			"topic", topic, "subscriber", subscriber)
		return ErrNotSubscriber
	}
	b.enqueue(RemoveSubscriberTaskTopicEvent{Topic: topic, Subscriber: subscriber})
	return nil
}

// HasTaskForSubscriber reports whether an open task awaits subscriber.
// Missing topics and unregistered subscribers simply report false; the
// polling contract never fails.
func (b *Broker) HasTaskForSubscriber(topic, subscriber string) bool {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("check open tasks: topic does not exist", "topic", topic)
		return false
	}
	if !t.IsSubscriber(subscriber) {
		b.logger.Warn("check open tasks: not subscribed", "topic", topic, "subscriber", subscriber)
		return false
	}
	return t.HasOpenTasks()
}

// NextTaskForSubscriber pops the oldest task for subscriber. It returns
// (nil, nil) when the queue is empty. Handing out a task mutates memory
// only; tasks are not mirrored individually.
func (b *Broker) NextTaskForSubscriber(topic, subscriber string) (Payload, error) {
	t, ok := b.findTaskTopic(topic)
	if !ok {
		b.logger.Warn("fetch task: topic does not exist", "topic", topic)
		return nil, ErrTopicNotFound
	}
	task, found, err := t.Fetch(subscriber)
	if err != nil {
		b.logger.Warn("fetch task: not subscribed", "topic", topic, "subscriber", subscriber)
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return task, nil
}
