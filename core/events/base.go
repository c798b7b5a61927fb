package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies an event type within a receiver-facing namespace.
type Kind string

// Event is the contract every session event satisfies.
type Event interface {
	ID() string
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the identity shared by all events.
type Base struct {
	id        string
	kind      Kind
	timestamp time.Time
}

// NewBase creates the shared identity for an event of the given kind.
func NewBase(kind Kind) Base {
	return Base{id: uuid.NewString(), kind: kind, timestamp: time.Now()}
}

func (b Base) ID() string {
	return b.id
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
