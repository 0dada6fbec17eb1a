// Package tui provides an interactive terminal UI for tempo using Bubble Tea.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/baiirun/tempo/internal/model"
	"github.com/baiirun/tempo/internal/repo"
)

// Status icons
const (
	iconIncomplete = "○"
	iconInProgress = "◐"
	iconComplete   = "●"
	iconHabit      = "↻"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	blockHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	pinnedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	archivedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func statusIcon(s model.TaskStatus) string {
	switch s {
	case model.StatusIncomplete:
		return iconIncomplete
	case model.StatusInProgress:
		return iconInProgress
	case model.StatusComplete:
		return iconComplete
	case model.StatusHabit:
		return iconHabit
	default:
		return "?"
	}
}

// row is one selectable line: either a block header or a task beneath it.
type row struct {
	blockIdx int
	task     *model.Task // nil for block headers
	header   bool
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	repo   *repo.Repository
	blocks []model.Timeblock
	rows   []row
	cursor int

	width   int
	height  int
	err     error
	message string // temporary status message
}

// New creates a TUI model over a loaded repository.
func New(r *repo.Repository) Model {
	m := Model{repo: r}
	m.refresh()
	return m
}

// refresh re-reads the repository snapshot and rebuilds the flat row list.
func (m *Model) refresh() {
	m.blocks = m.repo.Timeblocks()
	m.rows = m.rows[:0]
	for i := range m.blocks {
		m.rows = append(m.rows, row{blockIdx: i, header: true})
		for j := range m.blocks[i].Tasks {
			m.rows = append(m.rows, row{blockIdx: i, task: &m.blocks[i].Tasks[j]})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

type actionMsg struct {
	message string
	err     error
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionMsg:
		m.err = msg.err
		m.message = msg.message
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "r":
		m.refresh()
		m.message = "refreshed"

	case "d":
		if t := m.selectedTask(); t != nil {
			return m, m.doComplete(*t)
		}

	case "l":
		if t := m.selectedTask(); t != nil && t.IsHabit() {
			return m, m.doLogHabit(t.UUID)
		}

	case "p":
		if r := m.selectedRow(); r != nil && r.header {
			return m, m.doPin(m.blocks[r.blockIdx])
		}
	}
	return m, nil
}

func (m Model) selectedRow() *row {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

func (m Model) selectedTask() *model.Task {
	if r := m.selectedRow(); r != nil {
		return r.task
	}
	return nil
}

func (m Model) doComplete(t model.Task) tea.Cmd {
	return func() tea.Msg {
		t.Status = model.StatusComplete
		if err := m.repo.UpdateTask(t); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("completed %s", t.Name)}
	}
}

func (m Model) doLogHabit(uuid string) tea.Cmd {
	return func() tea.Msg {
		if err := m.repo.AddHabitEntryAt(uuid, time.Now()); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: "habit logged"}
	}
}

func (m Model) doPin(tb model.Timeblock) tea.Cmd {
	return func() tea.Msg {
		if tb.Status == model.TimeblockPinned {
			tb.Status = model.TimeblockOngoing
		} else {
			tb.Status = model.TimeblockPinned
		}
		if err := m.repo.UpdateTimeblock(tb); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("updated %s", tb.Name)}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tempo"))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		line := m.formatRow(r)
		if i == m.cursor {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("no timeblocks yet, create one with `tempo block add`"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.message != "" {
		b.WriteString(messageStyle.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("j/k:nav  d:done  l:log  p:pin  r:refresh  q:quit"))
	return b.String()
}

func (m Model) formatRow(r row) string {
	tb := m.blocks[r.blockIdx]
	if r.header {
		name := blockHeaderStyle.Render(tb.Name)
		if tb.Status == model.TimeblockPinned {
			name = pinnedStyle.Render("⚲ ") + name
		}
		archived := ""
		if n := len(tb.ArchivedTasks); n > 0 {
			archived = archivedStyle.Render(fmt.Sprintf("  (%d done)", n))
		}
		return name + archived
	}

	t := r.task
	return fmt.Sprintf("  %s %s  %s  due %s",
		statusIcon(t.Status), t.Name, t.PriorityString(), t.DueDateString())
}

// Run starts the TUI over a loaded repository.
func Run(r *repo.Repository) error {
	p := tea.NewProgram(New(r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
