package keepalive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vinhdn/inputbridge/internal/logging"
)

type mockPublisher struct {
	mu        sync.Mutex
	real      bool
	published []string
	failWrite bool
}

func (m *mockPublisher) RealResponsePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.real
}

func (m *mockPublisher) PublishSynthetic(_, content string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return false
	}
	m.published = append(m.published, content)
	return true
}

func (m *mockPublisher) publishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

type fixedPhrases struct{ msg string }

func (f fixedPhrases) Pick() string { return f.msg }

func TestEmitterPublishesOnInterval(t *testing.T) {
	pub := &mockPublisher{}
	e := New(pub, fixedPhrases{"still here"}, "req-1", 20*time.Millisecond, logging.NopLogger())

	e.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	e.Stop()

	// Five intervals fit in the window; allow scheduler slack on both sides.
	n := pub.publishedCount()
	if n < 2 || n > 6 {
		t.Errorf("published %d synthetic responses in ~5 intervals, want 2..6", n)
	}
}

func TestEmitterYieldsToRealResponse(t *testing.T) {
	pub := &mockPublisher{real: true}
	e := New(pub, fixedPhrases{"still here"}, "req-1", 10*time.Millisecond, logging.NopLogger())

	e.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	e.Stop()

	if n := pub.publishedCount(); n != 0 {
		t.Errorf("published %d synthetic responses despite pending real answer, want 0", n)
	}
}

func TestStopHaltsEmission(t *testing.T) {
	pub := &mockPublisher{}
	e := New(pub, fixedPhrases{"still here"}, "req-1", 10*time.Millisecond, logging.NopLogger())

	e.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	e.Stop()

	before := pub.publishedCount()
	time.Sleep(50 * time.Millisecond)
	after := pub.publishedCount()

	if before != after {
		t.Errorf("emitter published after Stop: %d -> %d", before, after)
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	e := New(&mockPublisher{}, fixedPhrases{"x"}, "req-1", time.Second, logging.NopLogger())
	e.Stop()
	e.Stop()
}

func TestWriteFailureKeepsLooping(t *testing.T) {
	pub := &mockPublisher{failWrite: true}
	e := New(pub, fixedPhrases{"still here"}, "req-1", 10*time.Millisecond, logging.NopLogger())

	e.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	// Later writes succeed; the loop must still be alive to attempt them.
	pub.mu.Lock()
	pub.failWrite = false
	pub.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	e.Stop()

	if pub.publishedCount() == 0 {
		t.Error("emitter should keep looping after a failed publish")
	}
}

type panickyPhrases struct{}

func (panickyPhrases) Pick() string { panic("template table corrupted") }

func TestEmitterPanicIsContained(t *testing.T) {
	pub := &mockPublisher{}
	e := New(pub, panickyPhrases{}, "req-1", 10*time.Millisecond, logging.NopLogger())

	e.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	e.Stop() // must not hang or re-panic

	if n := pub.publishedCount(); n != 0 {
		t.Errorf("published %d responses from a panicking source, want 0", n)
	}
}

func TestContextCancellationStopsEmitter(t *testing.T) {
	pub := &mockPublisher{}
	e := New(pub, fixedPhrases{"still here"}, "req-1", 10*time.Millisecond, logging.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()
	time.Sleep(40 * time.Millisecond)

	if n := pub.publishedCount(); n > 1 {
		t.Errorf("published %d responses after context cancel, want at most 1", n)
	}
	e.Stop()
}
