package services

import (
	"context"
	"sync"
)

// PublishedEvent is one recorded notification, for test assertions
type PublishedEvent struct {
	Topic   string
	Event   string
	Payload interface{}
}

// MockPublisher is a NotificationPublisher that records events in memory
// for testing
type MockPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event instead of sending it anywhere
func (m *MockPublisher) Publish(ctx context.Context, topic string, event string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{Topic: topic, Event: event, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// EventsFor returns the recorded events matching an event name
func (m *MockPublisher) EventsFor(event string) []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedEvent
	for _, e := range m.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears all recorded events
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
