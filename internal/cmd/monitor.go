package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vinhdn/inputbridge/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the bridge state live in the terminal",
	Long: `Render a live view of the bridge: the current state, the pending
request and its age, and the countdown until the next synthetic
keep-alive answer. Press q to quit. The monitor only reads records, so
it can run alongside waiters and responders.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := newStore(cfg)

	p := tea.NewProgram(tui.NewModel(st))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
