package login

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/theme"
)

// SubmitMsg carries the credentials entered by the user.
type SubmitMsg struct {
	Email    string
	Password string
}

// CancelMsg signals the user abandoned the login form.
type CancelMsg struct{}

type credentials struct {
	email    string
	password string
}

// Model is the payor sign-in form.
type Model struct {
	form    *huh.Form
	creds   *credentials
	spinner spinner.Model
	busy    bool
	errMsg  string
	notice  string
	width   int
	height  int
}

// New creates a sign-in form, pre-filling email when known.
func New(email string, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		creds:   &credentials{email: email},
		spinner: sp,
		width:   width,
		height:  height,
	}
	m.form = m.buildForm()
	return m
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("reviewer@payor.example").
				Value(&m.creds.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.creds.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(max(min(m.width-4, 60), 20))
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.busy {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.errMsg = ""
		submit := SubmitMsg{Email: strings.TrimSpace(m.creds.email), Password: m.creds.password}
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return submit })
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// Fail shows err and resets the form for another attempt, keeping the
// email.
func (m *Model) Fail(err error) tea.Cmd {
	m.busy = false
	m.errMsg = err.Error()
	m.creds = &credentials{email: m.creds.email}
	m.form = m.buildForm()
	return m.form.Init()
}

// SetNotice shows an informational line above the form, e.g. why the
// user was signed out.
func (m *Model) SetNotice(s string) {
	m.notice = s
}

// Busy reports whether a sign-in request is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// View renders the form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	parts := []string{titleStyle.Render("Payor sign in")}

	if m.notice != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(m.notice))
	}
	if m.errMsg != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errMsg))
	}

	if m.busy {
		parts = append(parts, m.spinner.View()+" Signing in...")
	} else {
		parts = append(parts, m.form.View())
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(max(min(width-4, 60), 20))
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("Email is required")
	}
	if at := strings.Index(s, "@"); at <= 0 || at == len(s)-1 {
		return errors.New("Enter a valid email address")
	}
	return nil
}
