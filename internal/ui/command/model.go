package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clinicdesk/internal/theme"
)

// Verb names a palette command.
type Verb string

const (
	VerbGo      Verb = "go"
	VerbBack    Verb = "back"
	VerbLogout  Verb = "logout"
	VerbRefresh Verb = "refresh"
	VerbQuit    Verb = "quit"
)

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Verb Verb
	Arg  string
}

// Parse turns palette input into a command. "go" takes one argument; the
// other verbs take none.
func Parse(input string) (CommandMsg, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return CommandMsg{}, fmt.Errorf("empty command")
	}

	verb := Verb(fields[0])
	args := fields[1:]
	switch verb {
	case VerbGo:
		if len(args) != 1 {
			return CommandMsg{}, fmt.Errorf("usage: go <section>")
		}
		return CommandMsg{Verb: verb, Arg: args[0]}, nil
	case VerbBack, VerbLogout, VerbRefresh, VerbQuit:
		if len(args) != 0 {
			return CommandMsg{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return CommandMsg{Verb: verb}, nil
	case "q":
		return CommandMsg{Verb: VerbQuit}, nil
	default:
		return CommandMsg{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "go admin, back, logout..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette. Invalid input stays
// in the palette with an error line.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			parsed, err := Parse(raw)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.input.Reset()
			return m, func() tea.Msg {
				return parsed
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Err returns the last parse error, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	parts := []string{title, m.input.View()}
	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render(m.err.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	return m.input.Focus()
}
