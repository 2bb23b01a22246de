package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
)

// Model is the help overlay: key bindings plus a legend for the claim
// status and priority colours used in the dashboard.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Legend"),
		statusLegend(),
		priorityLegend(),
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 10)).
		Height(max(m.height-4, 1)).
		Render(content)
}

func statusLegend() string {
	statuses := []model.ClaimStatus{
		model.ClaimStatusPending,
		model.ClaimStatusProcessing,
		model.ClaimStatusUnderReview,
		model.ClaimStatusApproved,
		model.ClaimStatusDenied,
	}
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, theme.StatusStyle(s).Render(s.Label()))
	}
	return "status    " + strings.Join(parts, "  ")
}

func priorityLegend() string {
	priorities := []model.ClaimPriority{
		model.ClaimPriorityHigh,
		model.ClaimPriorityMedium,
		model.ClaimPriorityLow,
	}
	parts := make([]string, 0, len(priorities))
	for _, p := range priorities {
		parts = append(parts, theme.PriorityStyle(p).Render(string(p)))
	}
	return "priority  " + strings.Join(parts, "  ")
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
