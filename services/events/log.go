package eventsvc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// LogPublisher writes events to the logger instead of a broker. Used in DEV.
type LogPublisher struct {
	logger core.Logger
}

var _ core.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (pub *LogPublisher) Publish(_ context.Context, evt core.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	pub.logger.Debug("event "+evt.Type, string(body))
	return nil
}

func (pub *LogPublisher) Close() error { return nil }

// RecordingPublisher keeps published events in memory for tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.EventPublisher = (*RecordingPublisher)(nil)

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{events: make([]core.Event, 0)}
}

func (pub *RecordingPublisher) Publish(_ context.Context, evt core.Event) error {
	pub.mu.Lock()
	defer pub.mu.Unlock()
	pub.events = append(pub.events, evt)
	return nil
}

func (pub *RecordingPublisher) Close() error { return nil }

// Types returns the types of the recorded events, in publication order.
func (pub *RecordingPublisher) Types() []string {
	pub.mu.Lock()
	defer pub.mu.Unlock()
	types := make([]string, 0, len(pub.events))
	for _, evt := range pub.events {
		types = append(types, evt.Type)
	}
	return types
}
