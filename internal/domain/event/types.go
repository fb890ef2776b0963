// internal/domain/event/types.go
package event

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type names a one-way event pushed to the presentation layer.
type Type string

const (
	// Connection events
	TypeConnected Type = "connected"
	TypePing      Type = "ping"
	TypePong      Type = "pong"

	// Subscriber batch events
	TypeDataInserted Type = "data:inserted"
	TypeDataUpdated  Type = "data:updated"
	TypeError        Type = "error"
	TypeErrorDone    Type = "error:done"

	// Performance pipeline events
	TypePerformanceUpdated Type = "performance:updated"

	// Free-form progress messages
	TypeGlobalMsg Type = "global:msg"
)

// Event is the universal push message format.
type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// New builds an event with a fresh ULID and the current time.
func New(t Type, data interface{}) *Event {
	return &Event{
		ID:        ulid.Make().String(),
		Type:      t,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Notifier is the one-way channel the core uses to report progress and
// errors to the presentation layer. Publishing is fire-and-forget.
type Notifier interface {
	Publish(e *Event)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Publish(*Event) {}
