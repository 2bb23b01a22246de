package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Refresh            Name = "refresh"
	Notifications      Name = "notifications"
	MarkAllRead        Name = "read-all"
	ClearNotifications Name = "clear-notifications"
	Search             Name = "search"
	ClearSearch        Name = "clear-search"
	Logout             Name = "logout"
	Quit               Name = "quit"
)

// Names lists every known command, in suggestion order.
var Names = []Name{
	Refresh, Notifications, MarkAllRead, ClearNotifications,
	Search, ClearSearch, Logout, Quit,
}

var aliases = map[string]Name{
	"r":     Refresh,
	"n":     Notifications,
	"q":     Quit,
	"exit":  Quit,
	"s":     Search,
	"/":     Search,
	"clear": ClearNotifications,
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg struct {
	Name Name
	Arg  string
}

// UnknownMsg is emitted when the input does not name a command.
type UnknownMsg struct {
	Input string
}

// Parse splits input into a command name and its argument.
func Parse(input string) (CommandMsg, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return CommandMsg{}, false
	}
	head, arg, _ := strings.Cut(input, " ")
	head = strings.ToLower(head)

	name := Name(head)
	if alias, ok := aliases[head]; ok {
		name = alias
	}
	for _, n := range Names {
		if n == name {
			return CommandMsg{Name: n, Arg: strings.TrimSpace(arg)}, true
		}
	}
	return CommandMsg{}, false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, search <term>, read-all, logout..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	suggestions := make([]string, len(Names))
	for i, n := range Names {
		suggestions[i] = string(n)
	}
	ti.SetSuggestions(suggestions)
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

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if raw == "" {
			return m, nil
		}
		cmd, ok := Parse(raw)
		if !ok {
			return m, func() tea.Msg { return UnknownMsg{Input: raw} }
		}
		return m, func() tea.Msg { return cmd }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 10)).
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
	return m.input.Focus()
}
