package store

import "time"

// RequestState is the lifecycle state recorded on a pending request.
// Only one state exists today; the field is persisted so future states
// can be added without changing the record shape.
type RequestState string

// RequestWaiting marks a request whose caller is blocked waiting for input.
const RequestWaiting RequestState = "waiting"

// State is the advisory bridge status shown to external monitors.
// It never gates the request/response protocol itself.
type State string

const (
	StateIdle            State = "idle"
	StateWaitingForInput State = "waiting_for_input"
	StateResponseSent    State = "response_sent"
	StateTimeout         State = "timeout"
)

// Request is the single-slot pending request record. Its existence signals
// that a caller is blocked waiting for input. Publishing a new request
// supersedes any prior one.
type Request struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	State     RequestState `json:"state"`
}

// Response is the answer record. RequestID is the sole correlation key:
// a response only belongs to the waiter whose request carries the same ID.
// Synthetic marks keep-alive answers fabricated while the real responder
// is still thinking.
type Response struct {
	RequestID string    `json:"request_id"`
	Content   string    `json:"content"`
	Continue  bool      `json:"continue"`
	Synthetic bool      `json:"synthetic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Status is the advisory status record. RequestID and Continue are only
// present when meaningful for the current state.
type Status struct {
	State     State     `json:"state"`
	RequestID string    `json:"request_id,omitempty"`
	Continue  *bool     `json:"continue,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Countdown records when the current wait started and how long the
// keep-alive grace period runs. Countdown displays read it to render
// remaining time; nothing in the protocol depends on it.
type Countdown struct {
	StartTime      time.Time `json:"start_time"`
	TimeoutSeconds float64   `json:"timeout_seconds"`
}
