// Package monitor implements the live task monitoring TUI. It renders a
// task's recent output in a scrollable viewport and refreshes it on a
// timer; quitting never touches the task itself.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskmux/taskmux/internal/supervisor"
	"github.com/taskmux/taskmux/internal/task"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	statusColors = map[task.Status]lipgloss.Style{
		task.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		task.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		task.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		task.StatusKilled:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

type tickMsg time.Time

type refreshMsg struct {
	task   *task.Task
	output string
	err    error
}

// Model is the bubbletea model for the monitor view.
type Model struct {
	sup     *supervisor.Supervisor
	taskID  string
	lines   int
	refresh time.Duration

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	task   *task.Task
	output string
	err    error
}

// New builds a monitor model for the given task.
func New(sup *supervisor.Supervisor, taskID string, lines int, refresh time.Duration) *Model {
	if lines <= 0 {
		lines = 50
	}
	if refresh <= 0 {
		refresh = time.Second
	}
	return &Model{sup: sup, taskID: taskID, lines: lines, refresh: refresh}
}

// Run starts the TUI and blocks until the user quits.
func (m *Model) Run() error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		t, err := m.sup.Status(m.taskID)
		if err != nil {
			return refreshMsg{err: err}
		}
		out, err := m.sup.Output(m.taskID, m.lines)
		if err != nil {
			// A task with no output yet is not an error worth showing.
			out = ""
		}
		return refreshMsg{task: t, output: out}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(3, m.height-6) // header, border, help line
		if !m.ready {
			m.viewport = viewport.New(max(10, m.width-2), vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = max(10, m.width-2)
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.output)

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tick())

	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.task = msg.task
		atBottom := m.viewport.AtBottom()
		m.output = msg.output
		if m.ready {
			m.viewport.SetContent(m.output)
			if atBottom {
				m.viewport.GotoBottom()
			}
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var header string
	switch {
	case m.err != nil:
		header = titleStyle.Render("Task "+m.taskID) + "  " +
			statusColors[task.StatusFailed].Render(m.err.Error())
	case m.task != nil:
		status := string(m.task.Status)
		if st, ok := statusColors[m.task.Status]; ok {
			status = st.Render(status)
		}
		dur := ""
		if m.task.StartTime != nil {
			dur = labelStyle.Render("  up ") + m.task.Duration().Round(time.Second).String()
		}
		header = titleStyle.Render(fmt.Sprintf("Task %s: %s", m.task.ID, m.task.Name)) +
			"  " + status + dur
	default:
		header = titleStyle.Render("Task " + m.taskID)
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render(m.viewport.View()))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("q/esc: quit  •  ↑/↓/pgup/pgdn: scroll"))
	return sb.String()
}
