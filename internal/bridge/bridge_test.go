package bridge_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vinhdn/inputbridge/internal/bridge"
	"github.com/vinhdn/inputbridge/internal/event"
	"github.com/vinhdn/inputbridge/internal/store"
	"github.com/vinhdn/inputbridge/internal/watch"
)

// fixedPhrases makes synthetic answers predictable in tests.
type fixedPhrases struct{ msg string }

func (f fixedPhrases) Pick() string { return f.msg }

// newTestBridge builds a bridge with fast polling and a grace interval long
// enough that keep-alive never interferes unless a test wants it to.
func newTestBridge(t *testing.T, opts ...bridge.Option) (*bridge.Bridge, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	base := []bridge.Option{
		bridge.WithPollInterval(10 * time.Millisecond),
		bridge.WithGraceInterval(10 * time.Second),
	}
	return bridge.New(st, append(base, opts...)...), st
}

func TestAwaitReturnsRealResponse(t *testing.T) {
	b, st := newTestBridge(t)

	go func() {
		time.Sleep(50 * time.Millisecond)
		if !b.Respond("req-1", "hello", false) {
			t.Error("Respond reported failure")
		}
	}()

	start := time.Now()
	answer, err := b.Await(context.Background(), "req-1", 2*time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if answer.Content != "hello" || answer.Continue {
		t.Errorf("answer = %+v, want content=hello continue=false", answer)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Await took %v, want well under the 2s deadline", elapsed)
	}

	if _, ok := st.PeekResponse(); ok {
		t.Error("response record should be consumed after Await returns")
	}
	if got := b.CurrentStatus(); got.State != store.StateIdle {
		t.Errorf("status after success = %q, want idle", got.State)
	}
}

func TestAwaitTimesOutWithoutResponder(t *testing.T) {
	b, _ := newTestBridge(t)

	start := time.Now()
	_, err := b.Await(context.Background(), "req-1", 100*time.Millisecond)
	if !errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("Await error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond || elapsed > time.Second {
		t.Errorf("Await returned after %v, want close to the 100ms deadline", elapsed)
	}

	if got := b.CurrentStatus(); got.State != store.StateTimeout {
		t.Errorf("status after timeout = %q, want timeout", got.State)
	}
}

func TestAwaitIgnoresMismatchedResponse(t *testing.T) {
	b, st := newTestBridge(t)

	err := st.PublishResponse(store.Response{RequestID: "req-stale", Content: "old news"})
	if err != nil {
		t.Fatalf("PublishResponse failed: %v", err)
	}

	_, err = b.Await(context.Background(), "req-current", 150*time.Millisecond)
	if !errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("Await error = %v, want ErrTimeout for mismatched response", err)
	}

	resp, ok := st.PeekResponse()
	if !ok {
		t.Fatal("mismatched response must remain unconsumed")
	}
	if resp.RequestID != "req-stale" {
		t.Errorf("remaining response request_id = %q, want req-stale", resp.RequestID)
	}
}

func TestStaleResponseSurvivesKeepAlive(t *testing.T) {
	// Grace shorter than the deadline, so the emitter gets several ticks.
	// A leftover real answer from an earlier cycle occupies the slot; the
	// emitter must yield to it rather than overwrite it.
	b, st := newTestBridge(t,
		bridge.WithGraceInterval(30*time.Millisecond),
		bridge.WithPhrases(fixedPhrases{"hang on"}),
	)

	err := st.PublishResponse(store.Response{RequestID: "req-stale", Content: "left over"})
	if err != nil {
		t.Fatalf("PublishResponse failed: %v", err)
	}

	_, err = b.Await(context.Background(), "req-current", 150*time.Millisecond)
	if !errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("Await error = %v, want ErrTimeout", err)
	}

	resp, ok := st.PeekResponse()
	if !ok {
		t.Fatal("stale response was destroyed during the wait")
	}
	if resp.RequestID != "req-stale" || resp.Synthetic {
		t.Errorf("remaining response = %+v, want the untouched stale record", resp)
	}
}

func TestAwaitReturnsSyntheticKeepAlive(t *testing.T) {
	b, _ := newTestBridge(t,
		bridge.WithGraceInterval(30*time.Millisecond),
		bridge.WithPhrases(fixedPhrases{"still thinking"}),
	)

	start := time.Now()
	answer, err := b.Await(context.Background(), "req-1", 2*time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if answer.Content != "still thinking" {
		t.Errorf("answer content = %q, want the synthetic phrase", answer.Content)
	}
	if !answer.Continue {
		t.Error("synthetic answer must carry continue=true")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("synthetic answer arrived after %v, want around one grace interval", elapsed)
	}
}

func TestRealResponseBeatsKeepAlive(t *testing.T) {
	b, _ := newTestBridge(t, bridge.WithGraceInterval(300*time.Millisecond))

	go func() {
		time.Sleep(40 * time.Millisecond)
		b.Respond("req-1", "real answer", false)
	}()

	answer, err := b.Await(context.Background(), "req-1", 2*time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if answer.Content != "real answer" || answer.Continue {
		t.Errorf("answer = %+v, want the real response", answer)
	}
}

func TestNoSyntheticAfterAwaitReturns(t *testing.T) {
	// Grace longer than the deadline: the wait times out first, and the
	// emitter must be gone before Await returns.
	b, st := newTestBridge(t, bridge.WithGraceInterval(200*time.Millisecond))

	_, err := b.Await(context.Background(), "req-1", 80*time.Millisecond)
	if !errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("Await error = %v, want ErrTimeout", err)
	}

	time.Sleep(400 * time.Millisecond)
	if resp, ok := st.PeekResponse(); ok {
		t.Errorf("synthetic response %+v appeared after Await returned", resp)
	}
}

func TestAwaitContextCancellation(t *testing.T) {
	b, st := newTestBridge(t, bridge.WithGraceInterval(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := b.Await(ctx, "req-1", 5*time.Second)
	if err == nil || errors.Is(err, bridge.ErrTimeout) {
		t.Fatalf("Await error = %v, want a cancellation error", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancellation took %v to unblock Await", elapsed)
	}

	// The emitter must stop with the wait.
	time.Sleep(200 * time.Millisecond)
	if _, ok := st.PeekResponse(); ok {
		t.Error("synthetic response appeared after cancellation")
	}
}

func TestOverlappingAwaitSupersedesFirstRequest(t *testing.T) {
	b, _ := newTestBridge(t)

	var wg sync.WaitGroup
	wg.Add(1)

	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = b.Await(context.Background(), "req-first", 300*time.Millisecond)
	}()

	time.Sleep(50 * time.Millisecond)

	// The second call overwrites the single request slot.
	go func() {
		time.Sleep(50 * time.Millisecond)
		b.Respond("req-second", "for the second caller", false)
	}()

	answer, err := b.Await(context.Background(), "req-second", 2*time.Second)
	if err != nil {
		t.Fatalf("second Await failed: %v", err)
	}
	if answer.Content != "for the second caller" {
		t.Errorf("second answer = %+v", answer)
	}

	wg.Wait()
	if !errors.Is(firstErr, bridge.ErrTimeout) {
		t.Errorf("first Await error = %v, want ErrTimeout after being superseded", firstErr)
	}
}

func TestSupersededAwaitTimesOutQuietly(t *testing.T) {
	// Once the request slot carries a newer id, the first wait's emitter
	// must stop fabricating answers: the first waiter times out instead of
	// consuming its own keep-alive, and the slot stays free for the newer
	// cycle's real answer.
	b, st := newTestBridge(t,
		bridge.WithGraceInterval(30*time.Millisecond),
		bridge.WithPhrases(fixedPhrases{"hang on"}),
	)

	done := make(chan struct{})
	var answer bridge.Answer
	var awaitErr error
	go func() {
		defer close(done)
		answer, awaitErr = b.Await(context.Background(), "req-first", 200*time.Millisecond)
	}()

	// Supersede before the first grace tick fires.
	time.Sleep(10 * time.Millisecond)
	if err := st.PublishRequest("req-second"); err != nil {
		t.Fatalf("PublishRequest failed: %v", err)
	}

	<-done
	if !errors.Is(awaitErr, bridge.ErrTimeout) {
		t.Fatalf("superseded Await = (%+v, %v), want ErrTimeout", answer, awaitErr)
	}
	if resp, ok := st.PeekResponse(); ok {
		t.Errorf("synthetic %+v was published for a superseded request", resp)
	}
}

func TestRespondWritesStatusAndRecord(t *testing.T) {
	b, st := newTestBridge(t)

	if !b.Respond("req-1", "direct", true) {
		t.Fatal("Respond reported failure")
	}

	resp, ok := st.PeekResponse()
	if !ok {
		t.Fatal("response record should exist after Respond")
	}
	if resp.Content != "direct" || !resp.Continue || resp.Synthetic {
		t.Errorf("response = %+v, want a real continue=true answer", resp)
	}

	status := b.CurrentStatus()
	if status.State != store.StateResponseSent {
		t.Errorf("status = %q, want response_sent", status.State)
	}
	if status.Continue == nil || !*status.Continue {
		t.Error("status should carry the continue flag")
	}
}

func TestRespondRequiresRequestID(t *testing.T) {
	b, _ := newTestBridge(t)
	if b.Respond("", "content", false) {
		t.Error("Respond with empty id should fail")
	}
}

func TestCurrentRequestDuringAwait(t *testing.T) {
	b, _ := newTestBridge(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Await(context.Background(), "req-1", 300*time.Millisecond)
	}()

	time.Sleep(50 * time.Millisecond)
	req, ok := b.CurrentRequest()
	if !ok {
		t.Fatal("a pending request should be visible during Await")
	}
	if req.ID != "req-1" || req.State != store.RequestWaiting {
		t.Errorf("pending request = %+v", req)
	}
	<-done
}

func TestTeardownClearsEverything(t *testing.T) {
	b, st := newTestBridge(t)

	b.Respond("req-1", "answer", false)
	if err := st.PublishRequest("req-1"); err != nil {
		t.Fatalf("PublishRequest failed: %v", err)
	}

	if err := b.Teardown(); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}

	if _, ok := b.CurrentRequest(); ok {
		t.Error("request should be gone after teardown")
	}
	if got := b.CurrentStatus(); got.State != store.StateIdle {
		t.Errorf("status after teardown = %q, want idle", got.State)
	}

	// Calling again on the empty store is fine.
	if err := b.Teardown(); err != nil {
		t.Errorf("repeated Teardown failed: %v", err)
	}
}

func TestEffectiveTimeout(t *testing.T) {
	b, _ := newTestBridge(t,
		bridge.WithGraceInterval(2*time.Minute),
		bridge.WithDefaultTimeout(time.Minute),
	)

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{"explicit timeout is honored", 5 * time.Second, 5 * time.Second},
		{"zero falls back to the floored default", 0, 2*time.Minute + bridge.TimeoutMargin},
		{"negative falls back to the floored default", -1, 2*time.Minute + bridge.TimeoutMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.EffectiveTimeout(tt.requested); got != tt.want {
				t.Errorf("EffectiveTimeout(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestAwaitPublishesLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	b, _ := newTestBridge(t, bridge.WithBus(bus))

	var mu sync.Mutex
	var types []string
	bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		types = append(types, e.EventType())
		mu.Unlock()
	})

	go func() {
		time.Sleep(30 * time.Millisecond)
		b.Respond("req-1", "hi", false)
	}()

	if _, err := b.Await(context.Background(), "req-1", 2*time.Second); err != nil {
		t.Fatalf("Await failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := map[string]bool{
		"request.published": false,
		"response.sent":     false,
		"response.consumed": false,
	}
	for _, typ := range types {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("event %q was not published", typ)
		}
	}
}

func TestWatcherWakesSlowPoller(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir)

	// Prime the directory so the watcher can attach to it.
	if err := st.SetStatus(store.Status{State: store.StateIdle}); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	w, err := watch.New(dir)
	if err != nil {
		t.Fatalf("watch.New failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	// Polling alone would take 5s; only the watcher can return us early.
	b := bridge.New(st,
		bridge.WithPollInterval(5*time.Second),
		bridge.WithGraceInterval(time.Minute),
		bridge.WithWatcher(w),
	)

	go func() {
		time.Sleep(100 * time.Millisecond)
		b.Respond("req-1", "woken", false)
	}()

	start := time.Now()
	answer, err := b.Await(context.Background(), "req-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if answer.Content != "woken" {
		t.Errorf("answer = %+v", answer)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Await took %v; the watcher should wake it within one write", elapsed)
	}
}
