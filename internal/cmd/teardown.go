package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove all bridge records",
	Long: `Delete the request, response, status, and countdown records from
the bridge directory. Safe to run when none exist. A waiter still
polling after teardown will simply time out.`,
	RunE: runTeardown,
}

func init() {
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := newStore(cfg)

	if err := st.Teardown(); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", st.Dir())
	return nil
}
