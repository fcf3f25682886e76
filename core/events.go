package core

import (
	"context"
	"time"
)

// Event types
const (
	EventPersonCreated   = "person.created"
	EventLinkCreated     = "link.created"
	EventLinkDeactivated = "link.deactivated"
)

type (
	Event struct {
		Type       string      `json:"type"`
		OccurredAt time.Time   `json:"occurred_at"`
		ActorID    string      `json:"actor_id,omitempty"`
		Payload    interface{} `json:"payload"`
	}

	// EventPublisher is any service that can broadcast domain events.
	EventPublisher interface {
		Publish(ctx context.Context, evt Event) error
		Close() error
	}
)

func NewEvent(ctx context.Context, typ string, payload interface{}) Event {
	evt := Event{Type: typ, OccurredAt: time.Now().UTC(), Payload: payload}
	if actor, ok := ActorFrom(ctx); ok {
		evt.ActorID = actor.ID
	}
	return evt
}
