package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	respondRequest  string
	respondContinue bool
)

var respondCmd = &cobra.Command{
	Use:   "respond [content]",
	Short: "Publish an answer for the pending request",
	Long: `Publish a response record correlated to a request ID. With no
--request flag the pending request's ID is used. Content comes from the
argument, or from stdin when the argument is omitted or "-".

Set --continue when the caller should keep the conversation open and
wait for further input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRespond,
}

func init() {
	respondCmd.Flags().StringVar(&respondRequest, "request", "", "request ID to answer (default: the pending request)")
	respondCmd.Flags().BoolVar(&respondContinue, "continue", false, "signal the caller to wait for another round")
	rootCmd.AddCommand(respondCmd)
}

func runRespond(cmd *cobra.Command, args []string) error {
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

	b, cleanup := newBridge(cfg, st, logger)
	defer cleanup()

	requestID := respondRequest
	if requestID == "" {
		req, ok := b.CurrentRequest()
		if !ok {
			return fmt.Errorf("no pending request; pass --request to answer a specific ID")
		}
		requestID = req.ID
	}

	var content string
	if len(args) == 1 && args[0] != "-" {
		content = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read content from stdin: %w", err)
		}
		content = strings.TrimRight(string(data), "\n")
	}

	if !b.Respond(requestID, content, respondContinue) {
		return fmt.Errorf("publish response for %s failed", requestID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "answered %s\n", requestID)
	return nil
}
