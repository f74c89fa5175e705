package history

import (
	"context"
	"time"
)

// Event mirrors a lifecycle transition of the supervised worker, shipped
// to external analytical sinks in addition to the primary store.
type Event struct {
	Event      string    `json:"event"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	OccurredAt time.Time `json:"occurred_at"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink receives lifecycle events. Delivery is best effort; the supervisor
// logs sink errors and keeps running.
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}
