// Package prompt implements the citation question sequence as Bubble Tea
// models. The engine only sees the Prompter contract: a picked option or a
// typed answer, plus ok=false when the developer dismisses a prompt.
package prompt

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Terminal prompts on the controlling terminal. Without one, every prompt
// auto-cancels: the citation workflow treats that as a dismissal and the rest
// of the telemetry is unaffected.
type Terminal struct {
	Logger *slog.Logger
}

// PickAssignment renders a one-of-N chooser. Esc or q dismisses it.
func (t *Terminal) PickAssignment(options []string) (string, bool, error) {
	if len(options) == 0 {
		return "", false, nil
	}
	if !t.interactive() {
		return "", false, nil
	}

	m, err := runModel(pickModel{title: "Which assignment are these changes for?", options: options})
	if err != nil {
		return "", false, err
	}
	pm := m.(pickModel)
	if pm.cancelled {
		return "", false, nil
	}
	return pm.options[pm.cursor], true, nil
}

// AskText renders a single free-text question. Esc dismisses it; an empty
// answer submitted with enter falls back to the placeholder.
func (t *Terminal) AskText(title, placeholder string) (string, bool, error) {
	if !t.interactive() {
		return "", false, nil
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	m, err := runModel(textModel{title: title, input: ti})
	if err != nil {
		return "", false, err
	}
	tm := m.(textModel)
	if tm.cancelled {
		return "", false, nil
	}
	answer := tm.input.Value()
	if answer == "" {
		answer = placeholder
	}
	return answer, true, nil
}

func (t *Terminal) interactive() bool {
	if term.IsTerminal(os.Stdin.Fd()) {
		return true
	}
	t.Logger.Debug("no terminal attached, prompt auto-cancelled")
	return false
}

func runModel(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// pickModel is the one-of-N chooser.
type pickModel struct {
	title     string
	options   []string
	cursor    int
	cancelled bool
	done      bool
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	s := "\n" + titleStyle.Render(" "+m.title+" ") + "\n\n"
	for i, opt := range m.options {
		if i == m.cursor {
			s += cursorStyle.Render("  ▸ ") + selectedStyle.Render(opt) + "\n"
		} else {
			s += "    " + dimStyle.Render(opt) + "\n"
		}
	}
	s += "\n" + hintStyle.Render("  ↑/↓ move  enter select  esc dismiss") + "\n"
	return s
}

// textModel is the single free-text question.
type textModel struct {
	title     string
	input     textinput.Model
	cancelled bool
	done      bool
}

func (m textModel) Init() tea.Cmd { return textinput.Blink }

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("\n%s\n\n  %s\n\n%s\n",
		titleStyle.Render(" "+m.title+" "),
		m.input.View(),
		hintStyle.Render("  enter submit  esc dismiss"))
}
