package broker

// CreateMessageTopic registers a new message topic and returns its projection.
func (b *Broker) CreateMessageTopic(name string) (MessageTopicModel, error) {
	b.mtMu.Lock()
	if _, exists := b.messageTopics[name]; exists {
		b.mtMu.Unlock()
		b.logger.Warn("create message topic: topic already exists", "topic", name)
		return MessageTopicModel{}, ErrTopicAlreadyExists
	}
	topic := NewMessageTopic[Payload](name, b.logger)
	b.messageTopics[name] = topic
	b.mtMu.Unlock()

	b.enqueue(CreateMessageTopicEvent{Topic: name})
	return topic.Model(), nil
}

// DeleteMessageTopic removes a message topic along with its memberships.
func (b *Broker) DeleteMessageTopic(name string) error {
	b.mtMu.Lock()
	if _, exists := b.messageTopics[name]; !exists {
		b.mtMu.Unlock()
		b.logger.Warn("delete message topic: topic does not exist", "topic", name)
		return ErrTopicNotFound
	}
	delete(b.messageTopics, name)
	b.mtMu.Unlock()

	b.enqueue(DeleteMessageTopicEvent{Topic: name})
	return nil
}

// LookupMessageTopic projects a single message topic.
func (b *Broker) LookupMessageTopic(name string) (MessageTopicModel, error) {
	topic, ok := b.findMessageTopic(name)
	if !ok {
		return MessageTopicModel{}, ErrTopicNotFound
	}
	return topic.Model(), nil
}

// PublishToMessageTopic appends payload for fan-out delivery. Only registered
// publishers may publish; violations are logged and ignored durably.
func (b *Broker) PublishToMessageTopic(topic, publisher string, payload Payload) error {
	return b.publishMessage(topic, publisher, []Payload{payload})
}

// PublishMultipleToMessageTopic appends all payloads atomically with respect
// to the topic index: either every payload lands and the index advances by
// their count, or none does.
func (b *Broker) PublishMultipleToMessageTopic(topic, publisher string, payloads []Payload) error {
	if len(payloads) == 0 {
		return nil
	}
	return b.publishMessage(topic, publisher, payloads)
}

func (b *Broker) publishMessage(name, publisher string, payloads []Payload) error {
	topic, ok := b.findMessageTopic(name)
	if !ok {
		b.logger.Warn("publish to message topic: topic does not exist", "topic", name)
		return ErrTopicNotFound
	}
	if !topic.IsPublisher(publisher) {
		b.logger.Warn("publish to message topic: not a registered publisher",
			"topic", name, "publisher", publisher)
		return ErrNotPublisher
	}

	reset, err := topic.PublishMultiple(payloads)
	if reset > 0 {
		b.enqueue(ResetIndexMessageTopicEvent{Topic: name, Subtrahend: reset})
	}
	if err != nil {
		return err
	}
	b.enqueue(PublishMessageTopicEvent{Topic: name, Payloads: payloads})
	return nil
}

// AddPublisherToMessageTopic authorizes publisher on the topic.
func (b *Broker) AddPublisherToMessageTopic(topic, publisher string) error {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("add publisher to message topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.AddPublisher(publisher) {
		b.logger.Warn("add publisher to message topic: already a publisher",
			"topic", topic, "publisher", publisher)
		return ErrAlreadyPublisher
	}
	b.enqueue(AddPublisherMessageTopicEvent{Topic: topic, Publisher: publisher})
	return nil
}

// RemovePublisherFromMessageTopic revokes publisher on the topic.
func (b *Broker) RemovePublisherFromMessageTopic(topic, publisher string) error {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("remove publisher from message topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.RemovePublisher(publisher) {
		b.logger.Warn("remove publisher from message topic: not a publisher",
			"topic", topic, "publisher", publisher)
		return ErrNotPublisher
	}
	b.enqueue(RemovePublisherMessageTopicEvent{Topic: topic, Publisher: publisher})
	return nil
}

// AddSubscriberToMessageTopic subscribes subscriber at the current index, so
// it will only see payloads published from now on.
func (b *Broker) AddSubscriberToMessageTopic(topic, subscriber string) error {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("add subscriber to message topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.AddSubscriber(subscriber) {
		b.logger.Warn("add subscriber to message topic: already subscribed",
			"topic", topic, "subscriber", subscriber)
		return ErrAlreadySubscriber
	}
	b.enqueue(AddSubscriberMessageTopicEvent{Topic: topic, Subscriber: subscriber})
	return nil
}

// RemoveSubscriberFromMessageTopic drops subscriber and its cursor.
func (b *Broker) RemoveSubscriberFromMessageTopic(topic, subscriber string) error {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("remove subscriber from message topic: topic does not exist", "topic", topic)
		return ErrTopicNotFound
	}
	if !t.RemoveSubscriber(subscriber) {
		b.logger.Warn("remove subscriber from message topic: not subscribed",
			"topic", topic, "subscriber", subscriber)
		return ErrNotSubscriber
	}
	b.enqueue(RemoveSubscriberMessageTopicEvent{Topic: topic, Subscriber: subscriber})
	return nil
}

// NewDataForSubscriber reports whether subscriber has unfetched payloads.
// Reads never enqueue events.
func (b *Broker) NewDataForSubscriber(topic, subscriber string) (bool, error) {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("check new data: topic does not exist", "topic", topic)
		return false, ErrTopicNotFound
	}
	hasNew, err := t.NewDataToFetch(subscriber)
	if err != nil {
		b.logger.Warn("check new data: not subscribed", "topic", topic, "subscriber", subscriber)
		return false, err
	}
	return hasNew, nil
}

// FetchDataForSubscriber returns the payloads published since subscriber's
// last fetch and advances its cursor. This is the one read that enqueues an
// event: the new cursor position must reach the durable mirror.
func (b *Broker) FetchDataForSubscriber(topic, subscriber string) ([]Payload, error) {
	t, ok := b.findMessageTopic(topic)
	if !ok {
		b.logger.Warn("fetch data: topic does not exist", "topic", topic)
		return nil, ErrTopicNotFound
	}
	data, cursor, err := t.Fetch(subscriber)
	if err != nil {
		b.logger.Warn("fetch data: not subscribed", "topic", topic, "subscriber", subscriber)
		return nil, err
	}
	b.enqueue(FetchDataMessageTopicEvent{Topic: topic, Subscriber: subscriber, Cursor: cursor})
	return data, nil
}
