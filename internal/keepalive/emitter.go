// Package keepalive fabricates synthetic "still working" answers while a
// real responder is slow.
//
// One Emitter runs per wait, bound to a single request ID. Each time the
// grace interval elapses with no real answer present, the emitter publishes
// a synthetic answer (continue=true) through the same publisher path a real
// responder uses, superseding any synthetic answer it published earlier.
// The waiter consumes the synthetic answer like any other, which keeps the
// caller's enclosing deadline from expiring.
//
// Known limitation: the existence check and the publish are two separate
// store operations. A real answer that lands in the gap between them is
// overwritten by the synthetic one. The check runs immediately before the
// publish to keep that window to a few microseconds; the design accepts the
// residual race rather than adding cross-process locking the record files
// cannot provide.
package keepalive

import (
	"context"
	"sync"
	"time"

	"github.com/vinhdn/inputbridge/internal/logging"
	"github.com/vinhdn/inputbridge/internal/phrase"
)

// Publisher is the responder-side surface the emitter publishes through.
// The bridge implements it; tests substitute mocks.
type Publisher interface {
	// RealResponsePending reports whether a non-synthetic answer is waiting
	// in the response slot, for any request. Real answers are never
	// overwritten by synthetic ones, even answers from an earlier cycle.
	RealResponsePending() bool

	// PublishSynthetic writes a synthetic keep-alive answer for the request.
	PublishSynthetic(requestID, content string) bool
}

// Emitter publishes synthetic answers for one request on a fixed interval
// until stopped or superseded by a real answer.
type Emitter struct {
	pub       Publisher
	phrases   phrase.Source
	requestID string
	interval  time.Duration
	logger    *logging.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// New creates an Emitter for the given request.
func New(pub Publisher, phrases phrase.Source, requestID string, interval time.Duration, logger *logging.Logger) *Emitter {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Emitter{
		pub:       pub,
		phrases:   phrases,
		requestID: requestID,
		interval:  interval,
		logger:    logger.WithRequest(requestID),
	}
}

// Start launches the emitter loop in a background goroutine. It returns
// immediately. Starting an already-started emitter is a no-op.
func (e *Emitter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.started = true

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx)
	}()
}

// Stop terminates the emitter and waits for its goroutine to exit. After
// Stop returns, no further synthetic answer will be published. It is safe
// to call multiple times and before Start.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()
}

// run is the emitter loop. Any panic is swallowed at this boundary: the
// emitter simply stops and the waiter's own timeout becomes the safety net.
func (e *Emitter) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("keep-alive emitter stopped after panic", "panic", r)
		}
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.pub.RealResponsePending() {
				// A genuine answer is in the slot, ours or a stale
				// cycle's; leave it alone and bow out.
				e.logger.Debug("keep-alive emitter yielding to real response")
				return
			}
			content := e.phrases.Pick()
			if !e.pub.PublishSynthetic(e.requestID, content) {
				e.logger.Warn("failed to publish synthetic response")
				continue
			}
			e.logger.Debug("published synthetic response")
		}
	}
}
