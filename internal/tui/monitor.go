// Package tui renders a live terminal monitor for a bridge directory.
// It reads only the advisory status and countdown records, so it can run
// alongside any number of waiters and responders without disturbing them.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vinhdn/inputbridge/internal/store"
)

// refreshInterval is how often the monitor re-reads the records.
const refreshInterval = 250 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(10)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	stateStyles = map[store.State]lipgloss.Style{
		store.StateIdle:            lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		store.StateWaitingForInput: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		store.StateResponseSent:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		store.StateTimeout:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// tickMsg drives the periodic record refresh.
type tickMsg time.Time

// Model is the bubbletea model for the bridge monitor.
type Model struct {
	st *store.Store

	status     store.Status
	request    store.Request
	hasRequest bool
	countdown  store.Countdown
	hasCount   bool

	spinner  spinner.Model
	progress progress.Model
	width    int
}

// NewModel creates a monitor over the given store.
func NewModel(st *store.Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return Model{
		st:       st,
		status:   store.Status{State: store.StateIdle},
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 16
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		return m, nil

	case tickMsg:
		m.status = m.st.ReadStatus()
		m.request, m.hasRequest = m.st.Request()
		m.countdown, m.hasCount = m.st.ReadCountdown()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	s := titleStyle.Render("inputbridge monitor") + "\n\n"

	stateStyle, ok := stateStyles[m.status.State]
	if !ok {
		stateStyle = lipgloss.NewStyle()
	}
	state := stateStyle.Render(string(m.status.State))
	if m.status.State == store.StateWaitingForInput {
		state = m.spinner.View() + " " + state
	}
	s += labelStyle.Render("state") + state + "\n"

	if m.hasRequest {
		age := time.Since(m.request.CreatedAt).Round(time.Second)
		s += labelStyle.Render("request") + fmt.Sprintf("%s (waiting %s)", m.request.ID, age) + "\n"
	} else {
		s += labelStyle.Render("request") + "none\n"
	}

	if m.status.Continue != nil {
		s += labelStyle.Render("continue") + fmt.Sprintf("%v", *m.status.Continue) + "\n"
	}

	if m.hasCount {
		total := time.Duration(m.countdown.TimeoutSeconds * float64(time.Second))
		remaining := total - time.Since(m.countdown.StartTime)
		if remaining < 0 {
			remaining = 0
		}
		frac := 0.0
		if total > 0 {
			frac = float64(remaining) / float64(total)
		}
		s += labelStyle.Render("keep-alive") + fmt.Sprintf("%s until next synthetic answer\n", remaining.Round(time.Second))
		s += labelStyle.Render("") + m.progress.ViewAs(frac) + "\n"
	}

	s += "\n" + helpStyle.Render("q to quit")
	return s
}
