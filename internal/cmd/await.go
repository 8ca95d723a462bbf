package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vinhdn/inputbridge/internal/bridge"
	"github.com/vinhdn/inputbridge/internal/config"
	"github.com/vinhdn/inputbridge/internal/event"
	"github.com/vinhdn/inputbridge/internal/logging"
	"github.com/vinhdn/inputbridge/internal/phrase"
	"github.com/vinhdn/inputbridge/internal/store"
	"github.com/vinhdn/inputbridge/internal/watch"
)

var (
	awaitID      string
	awaitTimeout time.Duration
)

var awaitCmd = &cobra.Command{
	Use:   "await",
	Short: "Publish a request and wait for an answer",
	Long: `Publish a request record and block until a matching response
arrives, the timeout elapses, or the process is interrupted. The answer
is printed to stdout; a synthetic keep-alive answer exits with the
conversation still open.

A zero timeout selects the configured default, raised so at least one
keep-alive cycle fits before the deadline.`,
	RunE: runAwait,
}

func init() {
	awaitCmd.Flags().StringVar(&awaitID, "id", "", "request correlation ID (default: a fresh UUID)")
	awaitCmd.Flags().DurationVar(&awaitTimeout, "timeout", 0, "overall wait deadline (0 = configured default)")
	rootCmd.AddCommand(awaitCmd)
}

func runAwait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := newStore(cfg)
	logger, err := newLogger(cfg, st)
	if err != nil {
		return fmt.Errorf("open logger: %w", err)
	}
	defer logger.Close()

	// Surface each fabricated keep-alive on stderr so whoever ran the
	// command can see the wait is still alive.
	bus := event.NewBus()
	bus.Subscribe("keepalive.emitted", func(ev event.Event) {
		if ka, ok := ev.(event.KeepAliveEmittedEvent); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "still waiting on %s, sent a keep-alive\n", ka.RequestID)
		}
	})

	b, cleanup := newBridge(cfg, st, logger, bridge.WithBus(bus))
	defer cleanup()

	id := awaitID
	if id == "" {
		id = bridge.NewRequestID()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	answer, err := b.Await(ctx, id, awaitTimeout)
	if err != nil {
		if errors.Is(err, bridge.ErrTimeout) {
			fmt.Fprintf(cmd.ErrOrStderr(), "no response for %s\n", id)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Content)
	if answer.Continue {
		fmt.Fprintln(cmd.ErrOrStderr(), "(conversation open, await again)")
	}
	return nil
}

// newBridge assembles a Bridge from the configuration. The returned
// cleanup stops the response watcher, if one was started.
func newBridge(cfg *config.Config, st *store.Store, logger *logging.Logger, extra ...bridge.Option) (*bridge.Bridge, func()) {
	opts := []bridge.Option{
		bridge.WithPollInterval(cfg.Bridge.PollInterval),
		bridge.WithGraceInterval(cfg.Bridge.GraceInterval),
		bridge.WithDefaultTimeout(cfg.Bridge.DefaultTimeout),
		bridge.WithPhrases(phrase.NewRotation(cfg.Language)),
		bridge.WithLogger(logger),
	}
	opts = append(opts, extra...)

	cleanup := func() {}
	if cfg.Bridge.Watch {
		// The watcher needs the directory to exist up front; the store
		// otherwise creates it lazily on first write.
		if err := os.MkdirAll(st.Dir(), 0o755); err == nil {
			if w, err := watch.New(st.Dir()); err == nil {
				opts = append(opts, bridge.WithWatcher(w))
				cleanup = func() { _ = w.Close() }
			} else {
				logger.Debug("response watcher unavailable, polling only", "error", err)
			}
		}
	}

	return bridge.New(st, opts...), cleanup
}
