package claimdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
	"github.com/nhle/claims-portal/internal/ui"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg asks the parent to record a status decision for a claim.
type ActionMsg struct {
	ClaimID string
	Update  model.ClaimStatusUpdate
}

// PoliciesRequestMsg asks the parent to load the payor's policies so a
// pre-authorization can be evaluated for Claim.
type PoliciesRequestMsg struct {
	Claim model.Claim
}

// EvaluateMsg asks the parent to evaluate pre-authorization for Claim
// against PolicyNumber.
type EvaluateMsg struct {
	Claim        model.Claim
	PolicyNumber string
}

// Mode is the current interaction state of the detail view.
type Mode int

const (
	ModeView Mode = iota
	ModeConfirmAction
	ModeSelectPolicy
)

// action describes one reviewer decision.
type action struct {
	verb   string
	status model.ClaimStatus
	notes  string
}

var (
	actionApprove     = action{verb: "Approve", status: model.ClaimStatusApproved, notes: "Claim approved by payor"}
	actionDeny        = action{verb: "Deny", status: model.ClaimStatusDenied, notes: "Claim denied by payor"}
	actionRequestInfo = action{verb: "Request info for", status: model.ClaimStatusProcessing, notes: "Additional information requested by payor"}
)

// formValues lives on the heap so huh keeps stable pointers to it across
// model copies.
type formValues struct {
	action  action
	notes   string
	confirm bool
	policy  string
}

// Model is the claim detail view component.
type Model struct {
	claim    *model.Claim
	decision *model.PreAuthDecision
	viewport viewport.Model
	keys     *keys.KeyMap
	mode     Mode
	form     *huh.Form
	values   *formValues
	busy     string
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != ModeView {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.claim != nil && m.busy == "" {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Approve):
			return m.startAction(actionApprove)

		case key.Matches(msg, m.keys.Deny):
			return m.startAction(actionDeny)

		case key.Matches(msg, m.keys.RequestInfo):
			return m.startAction(actionRequestInfo)

		case key.Matches(msg, m.keys.EvaluatePreAuth):
			c := *m.claim
			m.busy = "Loading policies..."
			return m, func() tea.Msg { return PoliciesRequestMsg{Claim: c} }
		}
	} else if ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) startAction(a action) (Model, tea.Cmd) {
	m.values = &formValues{action: a, notes: a.notes}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Notes").
				Description("Recorded with the status change").
				Value(&m.values.notes),
			huh.NewConfirm().
				Title(fmt.Sprintf("%s claim %s?", a.verb, m.claim.ClaimID)).
				Affirmative("Yes").
				Negative("No").
				Value(&m.values.confirm),
		),
	).WithWidth(m.formWidth())
	m.mode = ModeConfirmAction
	return m, m.form.Init()
}

// StartPolicySelect shows a policy picker for the pending pre-auth
// evaluation. With no policies the picker is skipped and an error shown.
func (m *Model) StartPolicySelect(policies []model.InsurancePolicy) tea.Cmd {
	m.busy = ""
	if m.claim == nil {
		return nil
	}
	if len(policies) == 0 {
		m.decision = &model.PreAuthDecision{Status: "unavailable", Message: "No insurance policies on file"}
		m.refresh()
		return nil
	}

	opts := make([]huh.Option[string], 0, len(policies))
	for _, p := range policies {
		label := p.PolicyNumber
		if p.Name != "" {
			label += " - " + p.Name
		}
		opts = append(opts, huh.NewOption(label, p.PolicyNumber))
	}

	m.values = &formValues{policy: policies[0].PolicyNumber}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Evaluate pre-authorization against policy").
				Options(opts...).
				Value(&m.values.policy),
		),
	).WithWidth(m.formWidth())
	m.mode = ModeSelectPolicy
	return m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.closeForm()
		return m, nil

	case huh.StateCompleted:
		values, mode := m.values, m.mode
		m.closeForm()
		claim := *m.claim

		if mode == ModeSelectPolicy {
			m.busy = "Evaluating pre-authorization..."
			return m, func() tea.Msg {
				return EvaluateMsg{Claim: claim, PolicyNumber: values.policy}
			}
		}
		if !values.confirm {
			return m, nil
		}
		m.busy = "Updating claim..."
		return m, func() tea.Msg {
			return ActionMsg{
				ClaimID: claim.ClaimID,
				Update: model.ClaimStatusUpdate{
					Status: values.action.status,
					Notes:  strings.TrimSpace(values.notes),
				},
			}
		}
	}

	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.values = nil
	m.mode = ModeView
}

// View renders the detail view.
func (m Model) View() string {
	if m.claim == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No claim selected")
	}

	if m.form != nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Width(m.width).
			Height(m.height).
			Render(m.form.View())
	}

	if m.busy != "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			theme.HelpStyle.Render(m.busy),
		)
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.claim == nil {
		return ""
	}
	c := m.claim

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render("Claim "+c.ClaimID))

	statusBadge := theme.StatusStyle(c.Status).Render(c.Status.Label())
	priBadge := theme.PriorityStyle(c.Priority).Render(ui.PriorityLabel(c.Priority) + " priority")
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", priBadge),
		"",
	)

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(16)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
	}

	row("Patient", c.PatientName())
	if c.Patient != nil {
		row("Member ID", c.Patient.ID)
		row("Insurance ID", c.Patient.InsuranceID)
	}
	row("Provider", c.ProviderName())
	if c.Provider != nil {
		row("Provider ID", c.Provider.ID)
	}
	row("Amount", ui.Currency(c.Amount))
	row("Submitted", c.SubmittedDate)
	row("Urgency", c.Urgency)
	row("Pre-auth", c.PreAuthStatus)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))

	if c.Notes != "" {
		sections = append(sections, "", separator, "", titleStyle.Render("Notes"), c.Notes)
	}

	if d := m.decision; d != nil {
		verdict := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).Render("NOT APPROVED")
		if d.Approved {
			verdict = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("APPROVED")
		}
		sections = append(sections, "", separator, "",
			titleStyle.Render("Pre-authorization"),
			verdict+"  "+valStyle.Render(d.Status),
		)
		if d.Message != "" {
			sections = append(sections, d.Message)
		}
	}

	sections = append(sections, "", theme.HelpStyle.Render(
		"a approve | d deny | i request info | e evaluate pre-auth | esc back",
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetClaim shows c and clears any previous pre-auth decision.
func (m *Model) SetClaim(c model.Claim) {
	m.claim = &c
	m.decision = nil
	m.busy = ""
	m.closeForm()
	m.refresh()
	m.viewport.GotoTop()
}

// UpdateClaim refreshes the shown claim if it has the same id, keeping
// the scroll position.
func (m *Model) UpdateClaim(c model.Claim) {
	if m.claim == nil || m.claim.ClaimID != c.ClaimID {
		return
	}
	m.claim = &c
	m.refresh()
}

// SetDecision displays the result of a pre-auth evaluation.
func (m *Model) SetDecision(d *model.PreAuthDecision) {
	m.decision = d
	m.busy = ""
	m.refresh()
}

// ClearBusy removes the in-progress indicator after a request finished.
func (m *Model) ClearBusy() {
	m.busy = ""
}

// Claim returns the displayed claim.
func (m Model) Claim() (model.Claim, bool) {
	if m.claim == nil {
		return model.Claim{}, false
	}
	return *m.claim, true
}

// Mode returns the current interaction mode.
func (m Model) Mode() Mode {
	return m.mode
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

func (m Model) formWidth() int {
	return max(min(m.width-4, 72), 20)
}
