// Package event defines the bridge lifecycle events and the bus that
// carries them. Events let monitors and CLI commands observe a wait in
// progress without touching the record files directly.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "request.published").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// RequestPublishedEvent is emitted when a waiter publishes a request and
// begins blocking for an answer.
type RequestPublishedEvent struct {
	baseEvent
	RequestID string
	Timeout   time.Duration
}

// NewRequestPublishedEvent creates a RequestPublishedEvent.
func NewRequestPublishedEvent(requestID string, timeout time.Duration) RequestPublishedEvent {
	return RequestPublishedEvent{
		baseEvent: newBaseEvent("request.published"),
		RequestID: requestID,
		Timeout:   timeout,
	}
}

// ResponseSentEvent is emitted when a responder publishes a real answer.
type ResponseSentEvent struct {
	baseEvent
	RequestID string
	Continue  bool
}

// NewResponseSentEvent creates a ResponseSentEvent.
func NewResponseSentEvent(requestID string, continueFlag bool) ResponseSentEvent {
	return ResponseSentEvent{
		baseEvent: newBaseEvent("response.sent"),
		RequestID: requestID,
		Continue:  continueFlag,
	}
}

// ResponseConsumedEvent is emitted when the waiter consumes a matching
// answer and returns it to the caller.
type ResponseConsumedEvent struct {
	baseEvent
	RequestID string
	Synthetic bool
	Continue  bool
}

// NewResponseConsumedEvent creates a ResponseConsumedEvent.
func NewResponseConsumedEvent(requestID string, synthetic, continueFlag bool) ResponseConsumedEvent {
	return ResponseConsumedEvent{
		baseEvent: newBaseEvent("response.consumed"),
		RequestID: requestID,
		Synthetic: synthetic,
		Continue:  continueFlag,
	}
}

// KeepAliveEmittedEvent is emitted each time the keep-alive emitter
// fabricates a synthetic answer.
type KeepAliveEmittedEvent struct {
	baseEvent
	RequestID string
	Content   string
}

// NewKeepAliveEmittedEvent creates a KeepAliveEmittedEvent.
func NewKeepAliveEmittedEvent(requestID, content string) KeepAliveEmittedEvent {
	return KeepAliveEmittedEvent{
		baseEvent: newBaseEvent("keepalive.emitted"),
		RequestID: requestID,
		Content:   content,
	}
}

// AwaitTimeoutEvent is emitted when a wait elapses without any answer.
type AwaitTimeoutEvent struct {
	baseEvent
	RequestID string
}

// NewAwaitTimeoutEvent creates an AwaitTimeoutEvent.
func NewAwaitTimeoutEvent(requestID string) AwaitTimeoutEvent {
	return AwaitTimeoutEvent{
		baseEvent: newBaseEvent("await.timeout"),
		RequestID: requestID,
	}
}

// TeardownEvent is emitted when all bridge records are removed.
type TeardownEvent struct {
	baseEvent
}

// NewTeardownEvent creates a TeardownEvent.
func NewTeardownEvent() TeardownEvent {
	return TeardownEvent{baseEvent: newBaseEvent("bridge.teardown")}
}
