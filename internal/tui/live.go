// Package tui shows a live view of a running simulation: elapsed time,
// progress and the latest logged values.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(28)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	barBgStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

const barWidth = 40

// ValuePair is one logged parameter and its rendered value.
type ValuePair struct {
	Name  string
	Value string
}

// StepMsg reports one completed step.
type StepMsg struct {
	Step   int
	Time   float64
	Values []ValuePair
}

// DoneMsg ends the live view.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model of the live view.
type Model struct {
	stopTime float64
	last     StepMsg
	started  bool
	done     bool
	err      error
}

func NewModel(stopTime float64) Model {
	return Model{stopTime: stopTime}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StepMsg:
		m.last = msg
		m.started = true
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("cosim"))
	b.WriteString("\n")

	progress := 0.0
	if m.stopTime > 0 {
		progress = m.last.Time / m.stopTime
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * barWidth)
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		barBgStyle.Render(strings.Repeat("░", barWidth-filled))
	b.WriteString(fmt.Sprintf("%s %5.1f%%\n", bar, progress*100))
	b.WriteString(fmt.Sprintf("t = %.4f / %.4f  (step %d)\n\n", m.last.Time, m.stopTime, m.last.Step))

	for _, v := range m.last.Values {
		b.WriteString(labelStyle.Render(v.Name))
		b.WriteString(valueStyle.Render(v.Value))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("\nfailed: " + m.err.Error()))
	case m.done:
		b.WriteString(doneStyle.Render("\ndone"))
	case m.started:
		b.WriteString(helpStyle.Render("q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// NewProgram wraps the model in a bubbletea program.
func NewProgram(stopTime float64) *tea.Program {
	return tea.NewProgram(NewModel(stopTime))
}
