package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the bridge state, pending request, and keep-alive countdown",
	RunE:  runStatus,
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Print the pending request ID, if any",
	Long: `Print the pending request's correlation ID to stdout. Exits
non-zero when no request is pending, so scripts can poll for work.`,
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(requestCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := newStore(cfg)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "bridge:  %s\n", st.Dir())

	status := st.ReadStatus()
	fmt.Fprintf(out, "state:   %s\n", status.State)
	if status.RequestID != "" {
		fmt.Fprintf(out, "request: %s\n", status.RequestID)
	}
	if status.Continue != nil {
		fmt.Fprintf(out, "continue: %v\n", *status.Continue)
	}

	if req, ok := st.Request(); ok {
		fmt.Fprintf(out, "pending: %s (for %s)\n", req.ID, time.Since(req.CreatedAt).Round(time.Second))
	}
	if remaining, ok := st.CountdownRemaining(); ok {
		fmt.Fprintf(out, "keep-alive in %s\n", remaining.Round(time.Second))
	}
	if resp, ok := st.PeekResponse(); ok {
		kind := "real"
		if resp.Synthetic {
			kind = "synthetic"
		}
		fmt.Fprintf(out, "unconsumed %s response for %s\n", kind, resp.RequestID)
	}
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := newStore(cfg)

	req, ok := st.Request()
	if !ok {
		return fmt.Errorf("no pending request")
	}
	fmt.Fprintln(cmd.OutOrStdout(), req.ID)
	return nil
}
