package bridge

import (
	"time"

	"github.com/vinhdn/inputbridge/internal/event"
	"github.com/vinhdn/inputbridge/internal/logging"
	"github.com/vinhdn/inputbridge/internal/phrase"
	"github.com/vinhdn/inputbridge/internal/watch"
)

const (
	// defaultPollInterval is how often the waiter checks for a response.
	defaultPollInterval = 100 * time.Millisecond

	// defaultGraceInterval is how long the keep-alive emitter waits for a
	// real answer before fabricating a synthetic one.
	defaultGraceInterval = 300 * time.Second
)

// Option configures a Bridge.
type Option func(*config)

type config struct {
	pollInterval   time.Duration
	graceInterval  time.Duration
	defaultTimeout time.Duration
	phrases        phrase.Source
	logger         *logging.Logger
	bus            *event.Bus
	watcher        *watch.Watcher
}

// WithPollInterval sets the waiter's polling interval.
// A zero or negative value is replaced with the default (100ms).
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithGraceInterval sets the keep-alive emitter's interval.
// A zero or negative value is replaced with the default (300s).
func WithGraceInterval(d time.Duration) Option {
	return func(c *config) {
		c.graceInterval = d
	}
}

// WithDefaultTimeout sets the overall wait deadline used when Await is
// called with a non-positive timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *config) {
		c.defaultTimeout = d
	}
}

// WithPhrases sets the source of synthetic keep-alive answer text.
func WithPhrases(src phrase.Source) Option {
	return func(c *config) {
		c.phrases = src
	}
}

// WithLogger sets the logger for the bridge.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBus sets the event bus for lifecycle notifications.
func WithBus(bus *event.Bus) Option {
	return func(c *config) {
		c.bus = bus
	}
}

// WithWatcher sets a response-file watcher that wakes the waiter ahead of
// its next poll tick.
func WithWatcher(w *watch.Watcher) Option {
	return func(c *config) {
		c.watcher = w
	}
}
