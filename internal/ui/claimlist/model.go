package claimlist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
)

// SelectedClaimMsg is sent when a user opens a claim.
type SelectedClaimMsg struct {
	Claim model.Claim
}

// priorityModes is the cycle order of the priority filter.
var priorityModes = []model.ClaimPriority{
	"",
	model.ClaimPriorityHigh,
	model.ClaimPriorityMedium,
	model.ClaimPriorityLow,
}

// Model is the dashboard claims list. It keeps the server order of the
// claims it is given and only filters them.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	claims      []model.Claim
	results     []model.Claim
	resultsFor  string
	priorityIdx int
	searchTerm  string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new claims list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ClaimDelegate{}, width, height-2)
	l.Title = "Claims"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "patient, claim id or provider..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetClaims replaces the live claims shown when no server search is active.
func (m *Model) SetClaims(claims []model.Claim) tea.Cmd {
	m.claims = claims
	return m.refreshItems()
}

// ShowResults displays server search results for term until ClearResults.
func (m *Model) ShowResults(term string, claims []model.Claim) tea.Cmd {
	m.resultsFor = term
	m.results = claims
	m.list.Title = "Search: " + term
	return m.refreshItems()
}

// ClearResults returns to the live claims.
func (m *Model) ClearResults() tea.Cmd {
	m.resultsFor = ""
	m.results = nil
	m.list.Title = "Claims"
	return m.refreshItems()
}

// ShowingResults reports whether server search results are displayed.
func (m Model) ShowingResults() bool {
	return m.resultsFor != ""
}

// Visible returns the claims after filtering, in their original order.
func (m Model) Visible() []model.Claim {
	src := m.claims
	if m.ShowingResults() {
		src = m.results
	}

	priority := priorityModes[m.priorityIdx]
	term := strings.ToLower(m.searchTerm)

	out := make([]model.Claim, 0, len(src))
	for _, c := range src {
		if priority != "" && c.Priority != priority {
			continue
		}
		if term != "" && !matches(c, term) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matches(c model.Claim, term string) bool {
	return strings.Contains(strings.ToLower(c.ClaimID), term) ||
		(c.Patient != nil && strings.Contains(strings.ToLower(c.Patient.Name), term)) ||
		(c.Provider != nil && strings.Contains(strings.ToLower(c.Provider.Name), term))
}

func (m *Model) refreshItems() tea.Cmd {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, c := range visible {
		items[i] = ClaimItem{Claim: c}
	}
	return m.list.SetItems(items)
}

// SelectedClaim returns the claim under the cursor.
func (m Model) SelectedClaim() (model.Claim, bool) {
	item, ok := m.list.SelectedItem().(ClaimItem)
	if !ok {
		return model.Claim{}, false
	}
	return item.Claim, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the claims list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchTerm = strings.TrimSpace(m.searchInput.Value())
		cmd := m.refreshItems()
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.searchTerm = ""
		cmd := m.refreshItems()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		c, ok := m.SelectedClaim()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedClaimMsg{Claim: c}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CyclePriority):
		m.priorityIdx = (m.priorityIdx + 1) % len(priorityModes)
		cmd := m.refreshItems()
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		if m.ShowingResults() {
			cmd := m.ClearResults()
			return m, cmd
		}
		if m.searchTerm != "" || m.priorityIdx != 0 {
			m.searchTerm = ""
			m.priorityIdx = 0
			m.searchInput.Reset()
			cmd := m.refreshItems()
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// FilterSummary describes the active filters, or "" when none apply.
func (m Model) FilterSummary() string {
	var parts []string
	if p := priorityModes[m.priorityIdx]; p != "" {
		parts = append(parts, "priority: "+string(p))
	}
	if m.searchTerm != "" {
		parts = append(parts, "search: "+m.searchTerm)
	}
	if m.ShowingResults() {
		parts = append(parts, "server search: "+m.resultsFor)
	}
	return strings.Join(parts, " | ")
}

// View renders the claims list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no claims are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.FilterSummary() != "" {
		return style.Render("No matching claims.\nPress esc to clear filters.")
	}
	return style.Render("No claims yet.\n\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
