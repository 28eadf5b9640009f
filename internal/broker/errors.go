package broker

import "errors"

var (
	// Topic registry errors
	ErrTopicNotFound      = errors.New("topic not found")
	ErrTopicAlreadyExists = errors.New("topic already exists")

	// Membership precondition errors
	ErrNotPublisher      = errors.New("not a registered publisher")
	ErrAlreadyPublisher  = errors.New("already a registered publisher")
	ErrNotSubscriber     = errors.New("not a registered subscriber")
	ErrAlreadySubscriber = errors.New("already a registered subscriber")

	// ErrIndexExhausted reports a publish that was dropped because the topic
	// index reached its ceiling and compaction could not reclaim room.
	ErrIndexExhausted = errors.New("message topic index exhausted")

	// Configuration errors
	ErrInvalidQueueCapacity  = errors.New("event queue capacity must be at least 1")
	ErrInvalidOverflowPolicy = errors.New("invalid event queue overflow policy")
	ErrInvalidConfigType     = errors.New("invalid config type for broker module")
)
