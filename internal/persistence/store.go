// Package persistence implements the write-behind pipeline: a worker pool
// drains the broker's event queue and mirrors each mutation to the relational
// store. Writes are best-effort; a failed event is logged and discarded so a
// slow or broken database can never stall the in-memory broker.
package persistence

import (
	"context"

	"github.com/f-str/radishmq/internal/broker"
)

// Store applies one persistence event as a durable mutation. Implementations
// must tolerate out-of-order application across events for different topics;
// within the protocol every mutation is commutative where order matters.
type Store interface {
	Apply(ctx context.Context, ev broker.Event) error
}
