package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinhdn/inputbridge/internal/event"
	"github.com/vinhdn/inputbridge/internal/keepalive"
	"github.com/vinhdn/inputbridge/internal/logging"
	"github.com/vinhdn/inputbridge/internal/phrase"
	"github.com/vinhdn/inputbridge/internal/store"
	"github.com/vinhdn/inputbridge/internal/watch"
)

// TimeoutMargin is the minimum headroom the overall wait deadline keeps
// above the grace interval, so at least one keep-alive cycle can run
// before the caller's own deadline fires.
const TimeoutMargin = 60 * time.Second

// ErrTimeout is returned by Await when the deadline elapses with no
// matching response. A timeout is an expected outcome, not a fault.
var ErrTimeout = errors.New("bridge: await timed out")

// Answer is what Await returns to the caller. Continue signals that the
// overall conversation is not finished and the caller should wait again.
type Answer struct {
	Content  string
	Continue bool
}

// Bridge coordinates one outstanding request/response cycle over a shared
// record store. It is safe for concurrent use, though the protocol assumes
// at most one logical Await in flight per Bridge.
type Bridge struct {
	store          *store.Store
	pollInterval   time.Duration
	graceInterval  time.Duration
	defaultTimeout time.Duration
	phrases        phrase.Source
	logger         *logging.Logger
	bus            *event.Bus
	watcher        *watch.Watcher

	// mu guards the publish-request+set-status compound step so two
	// overlapping Await calls cannot interleave torn records.
	mu sync.Mutex
}

// New creates a Bridge over the given store.
func New(st *store.Store, opts ...Option) *Bridge {
	if st == nil {
		panic("bridge: store must not be nil")
	}

	cfg := &config{
		pollInterval:  defaultPollInterval,
		graceInterval: defaultGraceInterval,
		logger:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.pollInterval <= 0 {
		cfg.pollInterval = defaultPollInterval
	}
	if cfg.graceInterval <= 0 {
		cfg.graceInterval = defaultGraceInterval
	}
	if cfg.defaultTimeout <= 0 {
		cfg.defaultTimeout = cfg.graceInterval + TimeoutMargin
	}
	if cfg.phrases == nil {
		cfg.phrases = phrase.NewRotation(phrase.DefaultLanguage)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	return &Bridge{
		store:          st,
		pollInterval:   cfg.pollInterval,
		graceInterval:  cfg.graceInterval,
		defaultTimeout: cfg.defaultTimeout,
		phrases:        cfg.phrases,
		logger:         cfg.logger,
		bus:            cfg.bus,
		watcher:        cfg.watcher,
	}
}

// NewRequestID returns a fresh correlation ID.
func NewRequestID() string {
	return uuid.New().String()
}

// EffectiveTimeout resolves the wait deadline for a requested timeout.
// An explicit positive timeout is honored as given. A non-positive value
// selects the configured default, raised to grace interval + TimeoutMargin
// so the caller's deadline cannot fire before one keep-alive cycle runs.
func (b *Bridge) EffectiveTimeout(requested time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	if floor := b.graceInterval + TimeoutMargin; b.defaultTimeout < floor {
		return floor
	}
	return b.defaultTimeout
}

// Await publishes a request and blocks until a matching response is
// consumed, the timeout elapses, or ctx is cancelled. The keep-alive
// emitter started for the wait is always halted before Await returns,
// on every exit path.
//
// A non-positive timeout selects the configured default. The answer may be
// synthetic: a keep-alive message with Continue set, fabricated because the
// real responder was still busy when the grace interval elapsed.
func (b *Bridge) Await(ctx context.Context, requestID string, timeout time.Duration) (Answer, error) {
	if requestID == "" {
		return Answer{}, fmt.Errorf("bridge: request id is required")
	}
	timeout = b.EffectiveTimeout(timeout)
	logger := b.logger.WithRequest(requestID)

	b.mu.Lock()
	if err := b.store.PublishRequest(requestID); err != nil {
		b.mu.Unlock()
		return Answer{}, fmt.Errorf("bridge: publish request: %w", err)
	}
	if err := b.store.SetStatus(store.Status{State: store.StateWaitingForInput, RequestID: requestID}); err != nil {
		logger.Warn("failed to update status", "error", err)
	}
	if err := b.store.WriteCountdown(b.graceInterval); err != nil {
		logger.Debug("failed to write countdown", "error", err)
	}
	b.mu.Unlock()

	b.publish(event.NewRequestPublishedEvent(requestID, timeout))
	logger.Info("awaiting response", "timeout", timeout)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	emitter := keepalive.New(b, b.phrases, requestID, b.graceInterval, b.logger)
	emitter.Start(ctx)
	defer emitter.Stop()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var wake <-chan struct{}
	if b.watcher != nil {
		wake = b.watcher.Wake()
	}

	for {
		if resp, ok := b.store.ConsumeResponse(requestID); ok {
			emitter.Stop()
			b.discardLingeringSynthetic(requestID)
			b.setIdle(requestID, logger)
			b.publish(event.NewResponseConsumedEvent(requestID, resp.Synthetic, resp.Continue))
			logger.Info("response consumed", "synthetic", resp.Synthetic, "continue", resp.Continue)
			return Answer{Content: resp.Content, Continue: resp.Continue}, nil
		}

		select {
		case <-ctx.Done():
			emitter.Stop()
			b.setIdle(requestID, logger)
			logger.Info("await cancelled")
			return Answer{}, fmt.Errorf("bridge: await cancelled: %w", ctx.Err())
		case <-deadline.C:
			emitter.Stop()
			if err := b.store.SetStatus(store.Status{State: store.StateTimeout, RequestID: requestID}); err != nil {
				logger.Warn("failed to update status", "error", err)
			}
			_ = b.store.ClearCountdown()
			b.publish(event.NewAwaitTimeoutEvent(requestID))
			logger.Info("await timed out", "timeout", timeout)
			return Answer{}, ErrTimeout
		case <-ticker.C:
		case <-wake:
		}
	}
}

// Respond publishes a real answer for the given request. It writes
// unconditionally: correlation is enforced by the consuming waiter, so the
// responder does not need to know whether the request is still live.
// The returned boolean reports write success; there is no retry.
func (b *Bridge) Respond(requestID, content string, continueFlag bool) bool {
	if requestID == "" {
		return false
	}

	err := b.store.PublishResponse(store.Response{
		RequestID: requestID,
		Content:   content,
		Continue:  continueFlag,
	})
	if err != nil {
		b.logger.Error("failed to publish response", "request_id", requestID, "error", err)
		return false
	}

	cont := continueFlag
	if err := b.store.SetStatus(store.Status{State: store.StateResponseSent, RequestID: requestID, Continue: &cont}); err != nil {
		b.logger.Warn("failed to update status", "request_id", requestID, "error", err)
	}
	_ = b.store.ClearCountdown()

	b.publish(event.NewResponseSentEvent(requestID, continueFlag))
	b.logger.Info("response published", "request_id", requestID, "continue", continueFlag)
	return true
}

// CurrentRequest returns the pending request record, if any.
// Responder UIs poll this to learn that a caller is waiting.
func (b *Bridge) CurrentRequest() (store.Request, bool) {
	return b.store.Request()
}

// CurrentStatus returns the advisory status record.
func (b *Bridge) CurrentStatus() store.Status {
	return b.store.ReadStatus()
}

// Teardown removes all bridge records unconditionally.
// Safe to call when none exist.
func (b *Bridge) Teardown() error {
	err := b.store.Teardown()
	b.publish(event.NewTeardownEvent())
	return err
}

// RealResponsePending reports whether a non-synthetic answer is waiting in
// the response slot, for any request. A stale real answer from an earlier
// cycle must remain unconsumed until teardown or a matching waiter, so the
// emitter yields to it instead of overwriting the single-slot record.
// Part of the keep-alive publisher surface.
func (b *Bridge) RealResponsePending() bool {
	resp, ok := b.store.PeekResponse()
	return ok && !resp.Synthetic
}

// PublishSynthetic writes a synthetic keep-alive answer for the request,
// following the same store path a real responder uses. The countdown is
// restarted for the next grace cycle. Part of the keep-alive publisher
// surface.
func (b *Bridge) PublishSynthetic(requestID, content string) bool {
	if req, ok := b.store.Request(); !ok || req.ID != requestID {
		// The request slot no longer carries this wait's id: a newer Await
		// superseded it, or the bridge was torn down. A superseded wait
		// must time out, not keep itself alive.
		b.logger.Debug("skipping synthetic for superseded request", "request_id", requestID)
		return false
	}

	err := b.store.PublishResponse(store.Response{
		RequestID: requestID,
		Content:   content,
		Continue:  true,
		Synthetic: true,
	})
	if err != nil {
		b.logger.Warn("failed to publish synthetic response", "request_id", requestID, "error", err)
		return false
	}

	cont := true
	if err := b.store.SetStatus(store.Status{State: store.StateResponseSent, RequestID: requestID, Continue: &cont}); err != nil {
		b.logger.Debug("failed to update status", "request_id", requestID, "error", err)
	}
	_ = b.store.WriteCountdown(b.graceInterval)

	b.publish(event.NewKeepAliveEmittedEvent(requestID, content))
	return true
}

// discardLingeringSynthetic drops a synthetic answer the emitter may have
// published in the instant between response consumption and the emitter
// halting, so the store is left response-empty. Real answers are never
// discarded here.
func (b *Bridge) discardLingeringSynthetic(requestID string) {
	if resp, ok := b.store.PeekResponse(); ok && resp.Synthetic && resp.RequestID == requestID {
		_, _ = b.store.ConsumeResponse(requestID)
	}
}

// setIdle resets the advisory records after a wait concludes.
func (b *Bridge) setIdle(requestID string, logger *logging.Logger) {
	if err := b.store.SetStatus(store.Status{State: store.StateIdle}); err != nil {
		logger.Debug("failed to reset status", "request_id", requestID, "error", err)
	}
	_ = b.store.ClearCountdown()
}

// publish sends an event if a bus is configured.
func (b *Bridge) publish(ev event.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}
