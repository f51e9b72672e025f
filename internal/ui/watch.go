package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"canopy/internal/domain"
	"canopy/internal/services"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// snapshotMsg carries one poll result into the update loop.
type snapshotMsg []domain.PaneStatus

// WatchModel is the liveness dashboard: a table of session workspaces
// refreshed on the monitor's polling interval.
type WatchModel struct {
	monitor  *services.StatusMonitor
	spinner  spinner.Model
	statuses []domain.PaneStatus
	lastPoll time.Time
	width    int
}

// NewWatchModel creates the dashboard model over the given monitor.
func NewWatchModel(monitor *services.StatusMonitor) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	return WatchModel{monitor: monitor, spinner: s}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m WatchModel) poll() tea.Cmd {
	return func() tea.Msg {
		statuses, err := m.monitor.Snapshot(context.Background())
		if err != nil {
			return snapshotMsg(nil)
		}
		return snapshotMsg(statuses)
	}
}

func (m WatchModel) scheduleNext() tea.Cmd {
	return tea.Tick(m.monitor.Interval(), func(time.Time) tea.Msg {
		return m.poll()()
	})
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		m.statuses = msg
		m.lastPoll = time.Now()
		sort.Slice(m.statuses, func(i, j int) bool {
			return m.statuses[i].WorkspaceName < m.statuses[j].WorkspaceName
		})
		return m, m.scheduleNext()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("canopy watch"))
	b.WriteString(" ")
	b.WriteString(m.spinner.View())
	b.WriteString("\n\n")

	if len(m.statuses) == 0 {
		b.WriteString(dimStyle.Render("No session workspaces. Add one with 'canopy session add <name>'."))
		b.WriteString("\n")
		return b.String()
	}

	nameWidth := len("WORKSPACE")
	for _, status := range m.statuses {
		if len(status.WorkspaceName) > nameWidth {
			nameWidth = len(status.WorkspaceName)
		}
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %-8s  %s", nameWidth, "WORKSPACE", "STATE", "COMMAND")))
	b.WriteString("\n")
	for _, status := range m.statuses {
		state := idleStyle.Render(string(domain.PaneIdle))
		if status.State == domain.PaneActive {
			state = activeStyle.Render(string(domain.PaneActive))
		}
		// Style widths include ANSI codes, so pad the raw value first.
		b.WriteString(fmt.Sprintf("%-*s  %s  %s\n",
			nameWidth, status.WorkspaceName,
			padStyled(state, string(status.State), 8),
			dimStyle.Render(status.Command)))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("refreshed %s | q to quit", m.lastPoll.Format("15:04:05"))))
	b.WriteString("\n")
	return b.String()
}

func padStyled(styled, raw string, width int) string {
	if pad := width - len(raw); pad > 0 {
		return styled + strings.Repeat(" ", pad)
	}
	return styled
}
