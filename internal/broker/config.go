package broker

import "fmt"

// Config holds the broker engine settings, registered as the "broker" config
// section and fed from yaml and the environment.
type Config struct {
	// EventQueueCapacity bounds the write-behind event queue. Producers are
	// subject to the overflow policy once the queue is full.
	EventQueueCapacity int `json:"eventQueueCapacity" yaml:"eventQueueCapacity" default:"4096" env:"EVENT_QUEUE_CAPACITY" desc:"Capacity of the write-behind persistence event queue"`

	// EventQueueOverflow selects what Enqueue does at capacity:
	// "block" (producers wait) or "drop_oldest" (evict head, keep newest).
	EventQueueOverflow string `json:"eventQueueOverflow" yaml:"eventQueueOverflow" default:"block" env:"EVENT_QUEUE_OVERFLOW" desc:"Enqueue policy when the event queue is full (block, drop_oldest)"`
}

// Validate implements modular.ConfigValidator.
func (c *Config) Validate() error {
	if c.EventQueueCapacity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, c.EventQueueCapacity)
	}
	switch OverflowPolicy(c.EventQueueOverflow) {
	case OverflowBlock, OverflowDropOldest:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOverflowPolicy, c.EventQueueOverflow)
	}
}
